// Package builder orchestrates the cache build: season aggregation, snap and
// bio enrichment, play-by-play impacts and the merged summary artifact.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/impact"
	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/schema"
	"github.com/tyler180/nfl-datastore/internal/season"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

// Season bounds of the default build.
const (
	DefaultFirstSeason = 1999
	DefaultLastSeason  = 2024
	DefaultBioBatch    = 100
)

// Table names used in results, metadata and status.
const (
	tableSeason  = "season"
	tableSnaps   = "snaps"
	tableBio     = "bio"
	tableImpacts = "impacts"
	tableSummary = "summary"
	tableBridge  = "id_bridge"
)

// Upstream is the bulk feed loader. *nflverse.Client implements it.
type Upstream interface {
	LoadWeeklyStats(ctx context.Context, seasons []int) (*schema.Frame, error)
	LoadPlayByPlay(ctx context.Context, seasons []int) (*schema.Frame, error)
	LoadPlayers(ctx context.Context) (*schema.Frame, error)
	LoadRosters(ctx context.Context, seasons []int) (*schema.Frame, error)
	LoadSnapCounts(ctx context.Context, seasons []int) (*schema.Frame, error)
}

// Scraper fetches per-team and per-player pages. *pfr.Client implements it.
type Scraper interface {
	FetchTeamSnapCounts(ctx context.Context, slug string, season int) ([]pfr.SnapCount, error)
	FetchPlayerBio(ctx context.Context, pfrID string) (pfr.Bio, error)
}

// Options controls one BuildAll run.
type Options struct {
	Seasons           []int
	Force             bool
	SkipBio           bool
	SkipImpacts       bool
	SkipSnaps         bool
	BioBatch          int
	IncludePostseason bool
}

// DefaultSeasons returns every season of the default build.
func DefaultSeasons() []int {
	out := make([]int, 0, DefaultLastSeason-DefaultFirstSeason+1)
	for s := DefaultFirstSeason; s <= DefaultLastSeason; s++ {
		out = append(out, s)
	}
	return out
}

func (o Options) seasons() []int {
	if len(o.Seasons) == 0 {
		return DefaultSeasons()
	}
	seen := map[int]struct{}{}
	out := make([]int, 0, len(o.Seasons))
	for _, s := range o.Seasons {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// Builder runs cache builds. Fetches run sequentially over a single
// scraper so its rate limit holds for the whole batch.
type Builder struct {
	up      Upstream
	scraper Scraper
	stores  *cache.Stores
	teams   *teams.Directory
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// New wires a builder. scraper may be nil, which skips snap and bio
// enrichment with a logged item error.
func New(up Upstream, scraper Scraper, stores *cache.Stores, dir *teams.Directory, opts ...Option) *Builder {
	b := &Builder{up: up, scraper: scraper, stores: stores, teams: dir, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(b)
	}
	if b.teams == nil {
		b.teams = teams.NewDirectory(teams.DefaultRecords(), b.logger)
	}
	return b
}

// BuildAll runs every step in dependency order. Per-item failures are
// collected on the Result; the returned error is non-nil only when no
// season data could be produced or loaded.
func (b *Builder) BuildAll(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Seasons: opts.seasons()}
	log := b.logger.With("run_id", res.RunID)
	log.Info("build start", "seasons", len(res.Seasons), "force", opts.Force,
		"skip_bio", opts.SkipBio, "skip_impacts", opts.SkipImpacts, "skip_snaps", opts.SkipSnaps)
	touched := map[string]bool{}

	all, built, err := b.seasonRows(ctx, opts, res)
	if err != nil {
		res.fatal = err
		b.recordRun(res, touched)
		return res, err
	}
	touched[tableSeason] = built
	rows := filterSeasons(all, res.Seasons)
	res.SeasonRows = len(rows)

	var bridge *teams.IDBridge
	if !opts.SkipBio {
		var jobs []teamSeason
		if !opts.SkipSnaps {
			jobs = snapJobs(all, res.Seasons, opts.Force)
		}
		bridge = b.bridge(ctx, res, rows, !opts.Force && !built && len(jobs) == 0)
		if len(jobs) > 0 {
			if merged := b.enrichSnaps(ctx, res, all, jobs, bridge); merged > 0 {
				rows = filterSeasons(all, res.Seasons)
				if err := b.stores.Season.Write(ctx, all); err != nil {
					res.AddError(tableSeason, "", err)
				} else {
					touched[tableSeason] = true
				}
			}
		}
		if n := b.enrichBios(ctx, res, opts, rows, bridge); n > 0 {
			touched[tableBio] = true
		}
	}

	var impacts []impact.Record
	if !opts.SkipImpacts {
		var built bool
		impacts, built = b.impacts(ctx, res, opts)
		touched[tableImpacts] = built
	} else if b.stores.Impacts.Exists() {
		impacts, err = b.stores.Impacts.Scan().Seasons(res.Seasons...).Collect(ctx)
		if err != nil {
			res.AddError(tableImpacts, "", err)
		}
	}
	res.ImpactRows = len(impacts)

	var pfrIDs func(string) (string, bool)
	if bridge != nil {
		pfrIDs = bridge.Map
	}
	summary := cache.Summarize(rows, impacts, pfrIDs)
	if err := b.stores.Summary.Write(ctx, summary); err != nil {
		res.AddError(tableSummary, "", err)
	} else {
		touched[tableSummary] = true
		res.SummaryRows = len(summary)
	}

	b.recordRun(res, touched)
	log.Info("build done", "summary", res.Summary())
	for _, e := range res.Errors {
		log.Warn("build item error", "table", e.Table, "key", e.Key, "err", e.Err)
	}
	return res, nil
}

// seasonRows ensures the season artifact and returns all of its rows. A
// failed rebuild falls back to an existing artifact.
func (b *Builder) seasonRows(ctx context.Context, opts Options, res *Result) ([]season.Record, bool, error) {
	build := func(ctx context.Context) ([]season.Record, error) {
		f, err := b.up.LoadWeeklyStats(ctx, res.Seasons)
		if err != nil {
			return nil, fmt.Errorf("load weekly stats: %w", err)
		}
		weekly, err := season.FromFrame(f)
		if err != nil {
			return nil, fmt.Errorf("weekly stats: %w", err)
		}
		return season.Aggregate(weekly, season.Options{Seasons: res.Seasons, IncludePostseason: opts.IncludePostseason}), nil
	}

	rows, built, err := b.stores.Season.Build(ctx, build, opts.Force)
	if err != nil {
		if !b.stores.Season.Exists() {
			return nil, false, fmt.Errorf("season cache unavailable: %w", err)
		}
		res.AddError(tableSeason, "", err)
		b.logger.Warn("season rebuild failed; using existing cache", "err", err)
		rows, err = b.stores.Season.Load(ctx)
		if err != nil {
			return nil, false, err
		}
		built = false
	}
	return rows, built, nil
}

func filterSeasons(rows []season.Record, seasons []int) []season.Record {
	want := make(map[int32]struct{}, len(seasons))
	for _, s := range seasons {
		want[int32(s)] = struct{}{}
	}
	out := rows[:0:0]
	for _, r := range rows {
		if _, ok := want[r.Season]; ok {
			out = append(out, r)
		}
	}
	return out
}

// bridge returns the gsis to PFR id bridge. When reuse is set it first
// tries the pfr_id column of the existing summary artifact, and keeps that
// bridge if every bridged player already has a cached bio, so an unchanged
// cache needs no directory download.
func (b *Builder) bridge(ctx context.Context, res *Result, rows []season.Record, reuse bool) *teams.IDBridge {
	if reuse {
		if cached := b.cachedBridge(ctx); cached != nil && b.biosComplete(ctx, rows, cached) {
			b.logger.Debug("reusing id bridge from summary artifact", "ids", cached.Len())
			return cached
		}
	}
	return b.idBridge(ctx, res)
}

func (b *Builder) cachedBridge(ctx context.Context) *teams.IDBridge {
	if !b.stores.Summary.Exists() {
		return nil
	}
	summary, err := b.stores.Summary.Load(ctx)
	if err != nil {
		b.logger.Warn("summary artifact unreadable; reloading players", "err", err)
		return nil
	}
	pairs := make([][]string, 0, len(summary))
	for _, r := range summary {
		if r.PfrID != "" {
			pairs = append(pairs, []string{r.PlayerID, r.PfrID})
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return teams.NewIDBridge("gsis_id", "pfr_id", schema.New([]string{"gsis_id", "pfr_id"}, pairs))
}

func (b *Builder) biosComplete(ctx context.Context, rows []season.Record, bridge *teams.IDBridge) bool {
	missing, err := b.stores.Bio.Missing(ctx, bridgedIDs(rows, bridge))
	return err == nil && len(missing) == 0
}

// idBridge maps gsis ids onto PFR ids from the players directory, falling
// back to rosters when the directory is unavailable.
func (b *Builder) idBridge(ctx context.Context, res *Result) *teams.IDBridge {
	var frames []*schema.Frame
	players, err := b.up.LoadPlayers(ctx)
	if err != nil {
		res.AddError(tableBridge, "players", err)
	} else {
		frames = append(frames, players)
	}
	if len(frames) == 0 {
		rosters, err := b.up.LoadRosters(ctx, res.Seasons)
		if err != nil {
			res.AddError(tableBridge, "rosters", err)
		} else {
			frames = append(frames, rosters)
		}
	}
	bridge := teams.NewIDBridge("gsis_id", "pfr_id", frames...)
	b.logger.Info("id bridge ready", "ids", bridge.Len())
	return bridge
}

// impacts ensures the impacts artifact. Seasons whose play-by-play cannot
// be loaded or aggregated are logged and skipped.
func (b *Builder) impacts(ctx context.Context, res *Result, opts Options) ([]impact.Record, bool) {
	build := func(ctx context.Context) ([]impact.Record, error) {
		var out []impact.Record
		ok := 0
		for _, s := range res.Seasons {
			f, err := b.up.LoadPlayByPlay(ctx, []int{s})
			if err != nil {
				res.AddError(tableImpacts, fmt.Sprint(s), err)
				continue
			}
			recs, err := impact.Aggregate(f, impact.Options{IncludePostseason: opts.IncludePostseason})
			if err != nil {
				res.AddError(tableImpacts, fmt.Sprint(s), err)
				continue
			}
			ok++
			out = append(out, recs...)
			b.logger.Debug("aggregated impacts", "season", s, "rows", len(recs))
		}
		if ok == 0 && len(res.Seasons) > 0 {
			return nil, errors.New("no play-by-play season could be aggregated")
		}
		impact.SortRecords(out)
		return out, nil
	}
	recs, built, err := b.stores.Impacts.Build(ctx, build, opts.Force)
	if err != nil {
		res.AddError(tableImpacts, "", err)
		if !b.stores.Impacts.Exists() {
			return nil, false
		}
		recs, err = b.stores.Impacts.Load(ctx)
		if err != nil {
			res.AddError(tableImpacts, "", err)
			return nil, false
		}
	}
	want := make(map[int32]struct{}, len(res.Seasons))
	for _, s := range res.Seasons {
		want[int32(s)] = struct{}{}
	}
	out := recs[:0:0]
	for _, r := range recs {
		if _, ok := want[r.Season]; ok {
			out = append(out, r)
		}
	}
	return out, built
}
