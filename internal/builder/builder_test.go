package builder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/nflverse"
	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/schema"
	"github.com/tyler180/nfl-datastore/internal/season"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

type fakeUpstream struct {
	mu      sync.Mutex
	calls   map[string]int
	weekly  *schema.Frame
	pbp     *schema.Frame
	players *schema.Frame
	snaps   *schema.Frame
	errs    map[string]error
}

func (f *fakeUpstream) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	return f.errs[name]
}

func (f *fakeUpstream) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeUpstream) LoadWeeklyStats(ctx context.Context, seasons []int) (*schema.Frame, error) {
	if err := f.hit("weekly"); err != nil {
		return nil, err
	}
	return f.weekly, nil
}

func (f *fakeUpstream) LoadPlayByPlay(ctx context.Context, seasons []int) (*schema.Frame, error) {
	if err := f.hit("pbp"); err != nil {
		return nil, err
	}
	want := seasons[0]
	return f.pbp.Filter(func(i int) bool { return schema.ParseInt(f.pbp.Value(i, "season"), 0) == want }), nil
}

func (f *fakeUpstream) LoadPlayers(ctx context.Context) (*schema.Frame, error) {
	if err := f.hit("players"); err != nil {
		return nil, err
	}
	return f.players, nil
}

func (f *fakeUpstream) LoadRosters(ctx context.Context, seasons []int) (*schema.Frame, error) {
	if err := f.hit("rosters"); err != nil {
		return nil, err
	}
	return f.players, nil
}

func (f *fakeUpstream) LoadSnapCounts(ctx context.Context, seasons []int) (*schema.Frame, error) {
	if err := f.hit("snaps"); err != nil {
		return nil, err
	}
	if f.snaps == nil {
		return nil, nflverse.ErrUpstreamUnavailable
	}
	return f.snaps, nil
}

type fakeScraper struct {
	mu       sync.Mutex
	snaps    map[string][]pfr.SnapCount // slug -> counts
	snapErrs map[string]error
	bioErrs  map[string]error
	fetched  []string
}

func (f *fakeScraper) FetchTeamSnapCounts(ctx context.Context, slug string, season int) ([]pfr.SnapCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, "snaps:"+slug)
	if err := f.snapErrs[slug]; err != nil {
		return nil, err
	}
	return f.snaps[slug], nil
}

func (f *fakeScraper) FetchPlayerBio(ctx context.Context, id string) (pfr.Bio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, "bio:"+id)
	if err := f.bioErrs[id]; err != nil {
		return pfr.Bio{}, err
	}
	return pfr.Bio{PfrID: id, Handedness: "Right", BirthCity: "Somewhere", BirthState: "TX", BirthCountry: "USA"}, nil
}

func (f *fakeScraper) calls(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.fetched {
		if len(c) > len(prefix) && c[:len(prefix)] == prefix {
			out = append(out, c[len(prefix):])
		}
	}
	return out
}

func fixtures() *fakeUpstream {
	return &fakeUpstream{
		weekly: schema.New(
			[]string{"player_id", "player_display_name", "position", "season", "season_type", "week", "recent_team", "passing_tds", "receiving_tds"},
			[][]string{
				{"00-1", "Patrick Mahomes", "QB", "2022", "REG", "1", "KC", "2", "0"},
				{"00-1", "Patrick Mahomes", "QB", "2022", "REG", "2", "KC", "2", "0"},
				{"00-2", "Stefon Diggs", "WR", "2022", "REG", "1", "BUF", "0", "1"},
				{"00-3", "Garrett Wilson", "WR", "2022", "REG", "1", "NYJ", "0", "0"},
			},
		),
		players: schema.New(
			[]string{"gsis_id", "pfr_id", "display_name"},
			[][]string{
				{"00-1", "MahoPa00", "Patrick Mahomes"},
				{"00-2", "DiggSt00", "Stefon Diggs"},
				{"00-3", "WilsGa00", "Garrett Wilson"},
			},
		),
		pbp: schema.New(
			[]string{"season", "season_type", "game_id", "play_id", "passer_player_id", "receiver_player_id", "epa", "wpa", "qb_epa", "qb_wpa"},
			[][]string{
				{"2022", "REG", "G1", "1", "00-1", "00-2", "0.5", "0.02", "0.5", "0.02"},
				{"2022", "REG", "G1", "2", "00-1", "NA", "-0.1", "0.0", "-0.1", "0.0"},
			},
		),
		snaps: schema.New(
			[]string{"season", "game_type", "week", "player", "pfr_player_id", "position", "team", "offense_snaps", "defense_snaps", "st_snaps"},
			[][]string{
				{"2022", "REG", "1", "Stefon Diggs", "DiggSt00", "WR", "BUF", "800", "0", "3"},
			},
		),
	}
}

func newTestBuilder(t *testing.T, up Upstream, sc Scraper) (*Builder, *cache.Stores) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stores := cache.Open(t.TempDir(), logger)
	b := New(up, sc, stores, teams.NewDirectory(teams.DefaultRecords(), logger),
		WithLogger(logger),
		WithClock(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
	return b, stores
}

func bySummaryID(t *testing.T, rows []cache.SummaryRecord, id string) cache.SummaryRecord {
	t.Helper()
	for _, r := range rows {
		if r.PlayerID == id {
			return r
		}
	}
	t.Fatalf("no summary row for %s", id)
	return cache.SummaryRecord{}
}

func TestBuildAll_EndToEnd(t *testing.T) {
	up := fixtures()
	sc := &fakeScraper{
		snaps:    map[string][]pfr.SnapCount{"kan": {{PfrID: "MahoPa00", Offense: 1000, SpecialTeams: 0}}},
		snapErrs: map[string]error{"buf": &pfr.StatusError{URL: "x", StatusCode: 500}},
	}
	b, stores := newTestBuilder(t, up, sc)
	ctx := context.Background()

	res, err := b.BuildAll(ctx, Options{Seasons: []int{2022}})
	require.NoError(t, err)
	require.NoError(t, res.Err())
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.SeasonRows)
	assert.Equal(t, 2, res.SnapTeams)
	assert.Equal(t, 2, res.SnapRows, "KC from the page, BUF from the feed fallback")
	assert.Equal(t, 3, res.BioUpdated)
	assert.Equal(t, 3, res.SummaryRows)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "snaps", res.Errors[0].Table)
	assert.Equal(t, "BUF/2022", res.Errors[0].Key)
	var se *pfr.StatusError
	assert.ErrorAs(t, res.Errors[0], &se)

	summary, err := stores.Summary.Load(ctx)
	require.NoError(t, err)
	mahomes := bySummaryID(t, summary, "00-1")
	assert.Equal(t, int64(1000), mahomes.SnapsTotal)
	assert.Equal(t, int32(4), mahomes.TotalTouchdowns)
	assert.InDelta(t, 0.4, mahomes.QBEPA, 1e-9)
	assert.Equal(t, "MahoPa00", mahomes.PfrID)

	diggs := bySummaryID(t, summary, "00-2")
	assert.Equal(t, int64(803), diggs.SnapsTotal)
	assert.InDelta(t, 0.5, diggs.SkillEPA, 1e-9)

	seasonRows, err := stores.Season.Load(ctx)
	require.NoError(t, err)
	for _, r := range seasonRows {
		if r.PlayerID == "00-1" {
			assert.Equal(t, 1000.0, r.OffenseSnaps, "snap merge is persisted to the season artifact")
		}
	}

	bios, err := stores.Bio.ByID(ctx)
	require.NoError(t, err)
	assert.Len(t, bios, 3)

	st, err := b.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.Artifacts["summary"].Exists)
	assert.Equal(t, int64(3), st.Artifacts["season"].Rows)
	require.NotNil(t, st.Metadata)
	assert.Equal(t, SchemaVersion, st.Metadata.SchemaVersion)
	assert.Equal(t, 2022, st.Metadata.FirstSeason)
	assert.Equal(t, res.RunID, st.Metadata.LastRunID)
	assert.Len(t, st.Metadata.Errors, 1)
	assert.Contains(t, st.Metadata.Tables, "impacts")
}

func TestBuildAll_SecondRunReusesArtifacts(t *testing.T) {
	up := fixtures()
	sc := &fakeScraper{}
	b, _ := newTestBuilder(t, up, sc)
	ctx := context.Background()

	_, err := b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipSnaps: true})
	require.NoError(t, err)
	require.Equal(t, 1, up.count("weekly"))
	require.Equal(t, 1, up.count("pbp"))
	require.Len(t, sc.calls("bio:"), 3)

	res, err := b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipSnaps: true})
	require.NoError(t, err)
	assert.Equal(t, 1, up.count("weekly"), "season artifact is reused")
	assert.Equal(t, 1, up.count("pbp"), "impacts artifact is reused")
	assert.Len(t, sc.calls("bio:"), 3, "cached bios are not refetched")
	assert.Equal(t, 3, res.SummaryRows)

	_, err = b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipSnaps: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, up.count("weekly"))
	assert.Equal(t, 2, up.count("pbp"))
	assert.Len(t, sc.calls("bio:"), 6, "refresh refetches bios")
}

func TestBuildAll_SecondRunSkipsMergedSnaps(t *testing.T) {
	up := fixtures()
	sc := &fakeScraper{snaps: map[string][]pfr.SnapCount{
		"kan": {{PfrID: "MahoPa00", Offense: 1000}},
		"buf": {{PfrID: "DiggSt00", Offense: 800}},
		"nyj": {{PfrID: "WilsGa00", Offense: 700}},
	}}
	b, _ := newTestBuilder(t, up, sc)
	ctx := context.Background()

	_, err := b.BuildAll(ctx, Options{Seasons: []int{2022}})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"buf", "kan", "nyj"}, sc.calls("snaps:"))
	require.Equal(t, 1, up.count("players"))

	res, err := b.BuildAll(ctx, Options{Seasons: []int{2022}})
	require.NoError(t, err)
	assert.Len(t, sc.calls("snaps:"), 3, "merged team-seasons are not refetched")
	assert.Len(t, sc.calls("bio:"), 3)
	assert.Equal(t, 1, up.count("players"), "id bridge comes from the summary artifact")
	assert.Equal(t, 3, res.SummaryRows)
	assert.Empty(t, res.Errors)

	_, err = b.BuildAll(ctx, Options{Seasons: []int{2022}, Force: true})
	require.NoError(t, err)
	assert.Len(t, sc.calls("snaps:"), 6, "refresh refetches every page")
	assert.Equal(t, 2, up.count("players"))
}

func TestBuildAll_PostseasonFlagReachesImpacts(t *testing.T) {
	up := fixtures()
	up.pbp = schema.Concat(up.pbp, schema.New(up.pbp.Columns, [][]string{
		{"2022", "POST", "G9", "1", "00-1", "NA", "1.0", "0.1", "1.0", "0.1"},
	}))
	b, stores := newTestBuilder(t, up, &fakeScraper{})
	ctx := context.Background()

	_, err := b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipBio: true, IncludePostseason: true})
	require.NoError(t, err)
	summary, err := stores.Summary.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, bySummaryID(t, summary, "00-1").QBEPA, 1e-9)

	_, err = b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipBio: true, Force: true})
	require.NoError(t, err)
	summary, err = stores.Summary.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, bySummaryID(t, summary, "00-1").QBEPA, 1e-9)
}

func TestSnapJobs(t *testing.T) {
	rows := []season.Record{
		{PlayerID: "a", Season: 2022, Team: "KC", OffenseSnaps: 10},
		{PlayerID: "b", Season: 2022, Team: "KC"},
		{PlayerID: "c", Season: 2022, Team: "BUF"},
		{PlayerID: "d", Season: 2011, Team: "BUF"},
		{PlayerID: "e", Season: 2022, Team: ""},
	}
	seasons := []int{2011, 2022}
	assert.Equal(t, []teamSeason{{2022, "BUF"}}, snapJobs(rows, seasons, false))
	assert.Equal(t, []teamSeason{{2022, "BUF"}, {2022, "KC"}}, snapJobs(rows, seasons, true))
}

func TestBuildAll_FatalWhenLoaderDownAndNoCache(t *testing.T) {
	up := fixtures()
	up.errs = map[string]error{"weekly": nflverse.ErrUpstreamUnavailable}
	b, stores := newTestBuilder(t, up, &fakeScraper{})

	res, err := b.BuildAll(context.Background(), Options{Seasons: []int{2022}})
	require.Error(t, err)
	assert.ErrorIs(t, err, nflverse.ErrUpstreamUnavailable)
	assert.ErrorIs(t, res.Err(), nflverse.ErrUpstreamUnavailable)
	assert.False(t, stores.Summary.Exists())
}

func TestBuildAll_RefreshFailureFallsBackToCache(t *testing.T) {
	up := fixtures()
	b, _ := newTestBuilder(t, up, &fakeScraper{})
	ctx := context.Background()

	_, err := b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipBio: true, SkipImpacts: true})
	require.NoError(t, err)

	up.errs = map[string]error{"weekly": nflverse.ErrUpstreamUnavailable}
	res, err := b.BuildAll(ctx, Options{Seasons: []int{2022}, SkipBio: true, SkipImpacts: true, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 3, res.SeasonRows)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], nflverse.ErrUpstreamUnavailable)
}

func TestBuildAll_SkipFlags(t *testing.T) {
	up := fixtures()
	sc := &fakeScraper{}
	b, stores := newTestBuilder(t, up, sc)

	res, err := b.BuildAll(context.Background(), Options{Seasons: []int{2022}, SkipBio: true, SkipImpacts: true})
	require.NoError(t, err)
	assert.Empty(t, sc.fetched)
	assert.Equal(t, 0, up.count("pbp"))
	assert.Equal(t, 0, up.count("players"))
	assert.Equal(t, 0, res.ImpactRows)
	assert.False(t, stores.Impacts.Exists())
	assert.True(t, stores.Summary.Exists())
}

func TestBuildAll_ImpactsPerSeason(t *testing.T) {
	up := fixtures()
	b, _ := newTestBuilder(t, up, &fakeScraper{})

	res, err := b.BuildAll(context.Background(), Options{Seasons: []int{2021, 2022}, SkipBio: true})
	require.NoError(t, err)
	assert.Equal(t, 2, up.count("pbp"))
	// 2021 has no plays but aggregates to zero rows without error.
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.ImpactRows)
}

func TestEnrichBios_BatchAndRateLimit(t *testing.T) {
	up := fixtures()
	sc := &fakeScraper{bioErrs: map[string]error{"MahoPa00": pfr.ErrRateLimited}}
	b, stores := newTestBuilder(t, up, sc)

	res, err := b.BuildAll(context.Background(), Options{Seasons: []int{2022}, SkipSnaps: true, SkipImpacts: true})
	require.NoError(t, err)
	// rows are ordered by name: Garrett Wilson, Patrick Mahomes, Stefon Diggs
	assert.Equal(t, []string{"WilsGa00", "MahoPa00"}, sc.calls("bio:"))
	assert.Equal(t, 1, res.BioUpdated)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], pfr.ErrRateLimited)

	sc2 := &fakeScraper{}
	b.scraper = sc2
	res, err = b.BuildAll(context.Background(), Options{Seasons: []int{2022}, SkipSnaps: true, SkipImpacts: true, BioBatch: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"MahoPa00"}, sc2.calls("bio:"))
	assert.Equal(t, 1, res.BioUpdated)

	all, err := stores.Bio.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMergeSnaps_OnlyPositiveValuesOverwrite(t *testing.T) {
	rows := []season.Record{{PlayerID: "00-9", Season: 2020, Team: "GB", OffenseSnaps: 10, DefenseSnaps: 7}}
	index := map[season.Key]int{rows[0].Key(): 0}
	bridge := teams.NewIDBridge("gsis_id", "pfr_id", schema.New([]string{"gsis_id", "pfr_id"}, [][]string{{"00-9", "X"}}))

	n := mergeSnaps(rows, index, bridge.Reverse(), teamSeason{2020, "GB"}, []pfr.SnapCount{
		{PfrID: "X", Offense: 0, Defense: 50, SpecialTeams: 4},
		{PfrID: "unknown", Offense: 99},
	})
	assert.Equal(t, 1, n)
	assert.Equal(t, 10.0, rows[0].OffenseSnaps)
	assert.Equal(t, 50.0, rows[0].DefenseSnaps)
	assert.Equal(t, 4.0, rows[0].SpecialTeamsSnaps)

	n = mergeSnaps(rows, index, bridge.Reverse(), teamSeason{2020, "GB"}, []pfr.SnapCount{{PfrID: "X", Defense: 50}})
	assert.Equal(t, 0, n, "unchanged values are not counted")
}

func TestResult(t *testing.T) {
	r := &Result{RunID: "r1"}
	assert.NoError(t, r.ItemErr())
	r.AddError("bio", "X", pfr.ErrRateLimited)
	r.AddErrorf("snaps", "GB/2020", "no slug for %s", "GB")
	assert.Equal(t, []string{"bio[X]: pfr: rate limited", "snaps[GB/2020]: no slug for GB"}, r.ErrorStrings())
	assert.True(t, errors.Is(r.ItemErr(), pfr.ErrRateLimited))
	assert.NoError(t, r.Err())
	assert.Contains(t, r.Summary(), "errors=2")
}
