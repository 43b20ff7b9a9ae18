package nflverse

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

type fakeRelease struct {
	mu    sync.Mutex
	files map[string][]byte
	hits  map[string]int
}

func newFakeRelease(files map[string][]byte) (*fakeRelease, *httptest.Server) {
	fr := &fakeRelease{files: files, hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fr.mu.Lock()
		fr.hits[r.URL.Path]++
		b, ok := fr.files[r.URL.Path]
		fr.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(b)
	}))
	return fr, srv
}

func (fr *fakeRelease) count(path string) int {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	return fr.hits[path]
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(
		WithBaseURL(srv.URL+"/dl"),
		WithAPIURL(srv.URL+"/api"),
		WithTeamsURL(srv.URL+"/teams.csv"),
		WithHTTPClient(srv.Client()),
	)
}

func TestLoader_NegotiatesAndRemembersShape(t *testing.T) {
	fr, srv := newFakeRelease(map[string][]byte{
		"/dl/player_stats/player_stats_2023.csv": []byte("season,player_id\n2023,00-1\n2023,00-2\n"),
	})
	defer srv.Close()
	c := newTestClient(srv)

	f, err := c.LoadWeeklyStats(context.Background(), []int{2023})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "player_stats-season", c.Loader(WeeklyStats).Shape())
	assert.Equal(t, 1, fr.count("/dl/stats_player/stats_player_week_2023.csv"))

	_, err = c.LoadWeeklyStats(context.Background(), []int{2023})
	require.NoError(t, err)
	assert.Equal(t, 1, fr.count("/dl/stats_player/stats_player_week_2023.csv"), "chosen shape must be tried first")
	assert.Equal(t, 2, fr.count("/dl/player_stats/player_stats_2023.csv"))
}

func TestLoader_PerSeasonSkipsMissingSeason(t *testing.T) {
	_, srv := newFakeRelease(map[string][]byte{
		"/dl/stats_player/stats_player_week_2022.csv": []byte("season,week\n2022,1\n"),
	})
	defer srv.Close()

	f, err := newTestClient(srv).LoadWeeklyStats(context.Background(), []int{2022, 2031})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Len())
}

func TestLoader_CombinedFilteredBySeason(t *testing.T) {
	_, srv := newFakeRelease(map[string][]byte{
		"/dl/snap_counts/snap_counts.csv": []byte("season,team,pfr_player_id\n2021,GB,A\n2022,GB,B\n2023,GB,C\n"),
	})
	defer srv.Close()
	c := newTestClient(srv)

	f, err := c.LoadSnapCounts(context.Background(), []int{2022, 2023})
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, "snap_counts-combined", c.Loader(SnapCounts).Shape())
}

func TestLoader_GzipBody(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("season,play_id,epa\n2023,1,0.5\n"))
	require.NoError(t, zw.Close())

	_, srv := newFakeRelease(map[string][]byte{"/dl/pbp/play_by_play_2023.csv.gz": buf.Bytes()})
	defer srv.Close()

	f, err := newTestClient(srv).LoadPlayByPlay(context.Background(), []int{2023})
	require.NoError(t, err)
	require.Equal(t, 1, f.Len())
	assert.Equal(t, "0.5", f.Value(0, "epa"))
}

func TestLoader_ReleaseAPIFallback(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/players":
			w.Write([]byte(`{"tag_name":"players","assets":[` +
				`{"name":"players.parquet","browser_download_url":"` + srv.URL + `/x/players.parquet"},` +
				`{"name":"players_v2.csv","browser_download_url":"` + srv.URL + `/x/players_v2.csv"}]}`))
		case "/x/players_v2.csv":
			w.Write([]byte("gsis_id,pfr_id\n00-1,AbcX00\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv)
	f, err := c.LoadPlayers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AbcX00", f.Value(0, "pfr_id"))
	assert.Equal(t, "release-api:players", c.Loader(Players).Shape())
}

func TestLoader_UnavailableWhenEveryShapeFails(t *testing.T) {
	_, srv := newFakeRelease(nil)
	defer srv.Close()

	_, err := newTestClient(srv).LoadRosters(context.Background(), []int{2023})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestLoader_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).LoadTeams(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestSnapTotals(t *testing.T) {
	f := schema.New(
		[]string{"season", "game_type", "week", "player", "pfr_player_id", "position", "team", "offense_snaps", "defense_snaps", "st_snaps"},
		[][]string{
			{"2023", "REG", "1", "Jordan Love", "LoveJo03", "QB", "GB", "60", "0", "2"},
			{"2023", "REG", "2", "Jordan Love", "LoveJo03", "QB", "GB", "65", "0", "NA"},
			{"2023", "WC", "19", "Jordan Love", "LoveJo03", "QB", "GB", "70", "0", "0"},
			{"2023", "REG", "1", "Nobody", "NA", "LB", "GB", "0", "50", "0"},
		},
	)
	got, err := SnapTotals(f)
	require.NoError(t, err)
	require.Len(t, got, 1)
	tot := got[SnapKey{PfrID: "LoveJo03", Season: 2023, Team: "GB"}]
	assert.Equal(t, SnapTotal{Player: "Jordan Love", Position: "QB", Offense: 125, Defense: 0, SpecialTeams: 2}, tot)
}

func TestSnapTotals_MissingKey(t *testing.T) {
	_, err := SnapTotals(schema.New([]string{"season", "team"}, nil))
	assert.ErrorIs(t, err, schema.ErrMissingColumn)
}

func TestPickAsset(t *testing.T) {
	assets := []asset{
		{Name: "roster_weekly_2023.parquet"},
		{Name: "roster_weekly_2023.csv.gz"},
		{Name: "roster_weekly_2023.csv"},
		{Name: "roster_weekly_2022.csv"},
	}
	a, ok := pickAsset(assets, "roster", "weekly_rosters", 2023)
	require.True(t, ok)
	assert.Equal(t, "roster_weekly_2023.csv", a.Name)

	_, ok = pickAsset(assets, "roster", "weekly_rosters", 2030)
	assert.False(t, ok)
}
