package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/nflverse"
	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/season"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

type teamSeason struct {
	season int
	team   string
}

func (t teamSeason) String() string { return fmt.Sprintf("%s/%d", t.team, t.season) }

// slug resolves a team abbreviation in any scheme to its PFR path segment.
func (b *Builder) slug(team string) (string, bool) {
	if s, ok := b.teams.Slug(team); ok {
		return s, true
	}
	if abbr, ok := b.teams.Normalize(team); ok {
		return b.teams.Slug(abbr)
	}
	return "", false
}

// snapJobs lists the (team, season) pairs of seasons that need snap-count
// pages. Unless force is set, a team-season whose rows already carry snaps
// is skipped.
func snapJobs(rows []season.Record, seasons []int, force bool) []teamSeason {
	want := map[int]struct{}{}
	for _, s := range seasons {
		if s >= pfr.SnapCountsFirstSeason {
			want[s] = struct{}{}
		}
	}
	jobSet := map[teamSeason]bool{} // value: already has snaps
	for i := range rows {
		r := &rows[i]
		if _, ok := want[int(r.Season)]; !ok || r.Team == "" {
			continue
		}
		job := teamSeason{int(r.Season), r.Team}
		jobSet[job] = jobSet[job] || r.OffenseSnaps != 0 || r.DefenseSnaps != 0 || r.SpecialTeamsSnaps != 0
	}
	jobs := make([]teamSeason, 0, len(jobSet))
	for j, merged := range jobSet {
		if force || !merged {
			jobs = append(jobs, j)
		}
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].season != jobs[j].season {
			return jobs[i].season < jobs[j].season
		}
		return jobs[i].team < jobs[j].team
	})
	return jobs
}

// enrichSnaps fetches the team snap-count pages of jobs and merges them into
// rows in place. A failed page falls back to the nflverse snap_counts feed
// for that team; after a rate limit no further pages are requested. It
// returns the number of rows changed.
func (b *Builder) enrichSnaps(ctx context.Context, res *Result, rows []season.Record, jobs []teamSeason, bridge *teams.IDBridge) int {
	if b.scraper == nil {
		res.AddErrorf(tableSnaps, "", "no scraper configured")
		return 0
	}
	if bridge.Len() == 0 {
		res.AddErrorf(tableSnaps, "", "empty id bridge; snap counts cannot be matched")
		return 0
	}
	index := make(map[season.Key]int, len(rows))
	for i := range rows {
		index[rows[i].Key()] = i
	}

	rev := bridge.Reverse()
	fb := &snapFallback{b: b, res: res}
	limited := false
	merged := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			res.AddError(tableSnaps, job.String(), ctx.Err())
			break
		}
		var counts []pfr.SnapCount
		var err error
		if limited {
			err = pfr.ErrRateLimited
		} else if slug, ok := b.slug(job.team); !ok {
			err = fmt.Errorf("no PFR slug for team %q", job.team)
		} else {
			counts, err = b.scraper.FetchTeamSnapCounts(ctx, slug, job.season)
		}
		if err != nil {
			if !limited {
				res.AddError(tableSnaps, job.String(), err)
				b.logger.Warn("snap counts fetch failed", "team", job.team, "season", job.season, "err", err)
			}
			if errors.Is(err, pfr.ErrRateLimited) {
				limited = true
			}
			counts = fb.counts(ctx, job)
			if counts == nil {
				continue
			}
		} else {
			res.SnapTeams++
		}
		merged += mergeSnaps(rows, index, rev, job, counts)
	}
	res.SnapRows = merged
	return merged
}

// mergeSnaps writes fetched snap counts into the matching rows. A field is
// only overwritten by a positive fetched value.
func mergeSnaps(rows []season.Record, index map[season.Key]int, pfrToGsis *teams.IDBridge, job teamSeason, counts []pfr.SnapCount) int {
	n := 0
	for _, c := range counts {
		gsis, ok := pfrToGsis.Map(c.PfrID)
		if !ok {
			continue
		}
		i, ok := index[season.Key{PlayerID: gsis, Season: job.season, Team: job.team}]
		if !ok {
			continue
		}
		r := &rows[i]
		changed := false
		for _, f := range []struct {
			dst *float64
			v   int
		}{
			{&r.OffenseSnaps, c.Offense},
			{&r.DefenseSnaps, c.Defense},
			{&r.SpecialTeamsSnaps, c.SpecialTeams},
		} {
			if f.v > 0 && *f.dst != float64(f.v) {
				*f.dst = float64(f.v)
				changed = true
			}
		}
		if changed {
			n++
		}
	}
	return n
}

// snapFallback lazily loads the nflverse snap_counts feed once.
type snapFallback struct {
	b      *Builder
	res    *Result
	loaded bool
	totals map[nflverse.SnapKey]nflverse.SnapTotal
}

func (f *snapFallback) counts(ctx context.Context, job teamSeason) []pfr.SnapCount {
	if !f.loaded {
		f.loaded = true
		var seasons []int
		for _, s := range f.res.Seasons {
			if s >= pfr.SnapCountsFirstSeason {
				seasons = append(seasons, s)
			}
		}
		frame, err := f.b.up.LoadSnapCounts(ctx, seasons)
		if err != nil {
			f.res.AddError(tableSnaps, "nflverse", err)
			return nil
		}
		f.totals, err = nflverse.SnapTotals(frame)
		if err != nil {
			f.res.AddError(tableSnaps, "nflverse", err)
			return nil
		}
	}
	var out []pfr.SnapCount
	for k, t := range f.totals {
		if k.Season == job.season && k.Team == job.team {
			out = append(out, pfr.SnapCount{
				PfrID: k.PfrID, Player: t.Player, Position: t.Position,
				Offense: t.Offense, Defense: t.Defense, SpecialTeams: t.SpecialTeams,
			})
		}
	}
	return out
}

// bridgedIDs returns the distinct PFR ids of rows, in row order.
func bridgedIDs(rows []season.Record, bridge *teams.IDBridge) []string {
	seen := map[string]struct{}{}
	var ids []string
	for _, r := range rows {
		id, ok := bridge.Map(r.PlayerID)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// enrichBios fetches bios for bridged players that are not cached yet (all
// bridged players when opts.Force), at most BioBatch per run. A rate limit
// ends the batch; whatever was fetched is still upserted.
func (b *Builder) enrichBios(ctx context.Context, res *Result, opts Options, rows []season.Record, bridge *teams.IDBridge) int {
	if b.scraper == nil {
		res.AddErrorf(tableBio, "", "no scraper configured")
		return 0
	}
	ids := bridgedIDs(rows, bridge)

	cands := ids
	if !opts.Force {
		var err error
		cands, err = b.stores.Bio.Missing(ctx, ids)
		if err != nil {
			res.AddError(tableBio, "", err)
			return 0
		}
	}
	batch := opts.BioBatch
	if batch <= 0 {
		batch = DefaultBioBatch
	}
	if len(cands) > batch {
		cands = cands[:batch]
	}

	var entries []cache.BioRecord
	for _, id := range cands {
		bio, err := b.scraper.FetchPlayerBio(ctx, id)
		if err != nil {
			res.AddError(tableBio, id, err)
			if errors.Is(err, pfr.ErrRateLimited) || ctx.Err() != nil {
				b.logger.Warn("bio batch stopped", "fetched", len(entries), "err", err)
				break
			}
			continue
		}
		entries = append(entries, cache.BioRecord{
			PfrID:        id,
			Handedness:   bio.Handedness,
			BirthCity:    bio.BirthCity,
			BirthState:   bio.BirthState,
			BirthCountry: bio.BirthCountry,
		})
	}
	if len(entries) == 0 {
		return 0
	}
	if _, err := b.stores.Bio.Upsert(ctx, entries); err != nil {
		res.AddError(tableBio, "", err)
		return 0
	}
	res.BioUpdated = len(entries)
	return len(entries)
}
