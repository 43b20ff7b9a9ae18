package season

import (
	"sort"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/position"
	"github.com/tyler180/nfl-datastore/internal/schema"
)

// RegularSeason is the season_type value kept by default.
const RegularSeason = "REG"

// Row is one reconciled weekly row.
type Row struct {
	PlayerID      string
	PlayerName    string
	Position      string
	PositionGroup string
	Team          string
	SeasonType    string
	Season        int
	Week          int // 0 when the week cell is null or absent
	Games         float64
	Stats         []float64 // schema.WeeklyNumerics order
}

// Options controls which rows enter the aggregation.
type Options struct {
	// Seasons restricts the output; empty keeps every season.
	Seasons []int
	// IncludePostseason keeps non-REG rows when a season type is present.
	IncludePostseason bool
}

// FromFrame reconciles a weekly player-stats feed into rows. The season
// column is required; every other column falls back to its default.
func FromFrame(f *schema.Frame) ([]Row, error) {
	if err := f.Require("season"); err != nil {
		return nil, err
	}
	rec := schema.NewReconciler(f, schema.WeeklyStrings, schema.WeeklyNumerics)
	idx := make(map[string]int, len(schema.WeeklyStrings))
	for i, s := range schema.WeeklyStrings {
		idx[s.Name] = i
	}
	gamesRec := schema.NewReconciler(f, nil, []schema.NumericField{{Name: "games", Candidates: schema.GamesCandidates}})

	iSeason := f.Index("season")
	iWeek := f.Index("week")
	iType := f.Index("season_type")

	rows := make([]Row, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		season := schema.ParseInt(f.Cell(i, iSeason), 0)
		if season == 0 {
			continue
		}
		r := Row{
			PlayerID:      rec.String(i, idx[schema.FieldPlayerID]),
			PlayerName:    rec.String(i, idx[schema.FieldPlayerName]),
			Position:      canonicalPosition(rec.String(i, idx[schema.FieldPosition])),
			PositionGroup: strings.ToUpper(rec.String(i, idx[schema.FieldPositionGroup])),
			Team:          strings.ToUpper(rec.String(i, idx[schema.FieldTeam])),
			Season:        season,
			Week:          schema.ParseInt(f.Cell(i, iWeek), 0),
			Games:         gamesRec.Float(i, 0),
			Stats:         make([]float64, len(schema.WeeklyNumerics)),
		}
		if iType >= 0 {
			r.SeasonType = strings.ToUpper(f.Cell(i, iType))
		}
		for j := range schema.WeeklyNumerics {
			r.Stats[j] = rec.Float(i, j)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// canonicalPosition maps known aliases onto the canonical code and keeps
// anything else upper-cased as reported.
func canonicalPosition(raw string) string {
	if c, ok := position.Canonicalize(raw); ok {
		return string(c)
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

type group struct {
	rec      Record
	weeks    map[int]struct{}
	maxGames float64
	seen     []bool // per stat, whether a Max field has a value yet
}

// Aggregate groups rows by (player_id, season, team). Rows without a
// player id are dropped; a missing team becomes "". Output is sorted by
// (player_name, season, team).
func Aggregate(rows []Row, opts Options) []Record {
	want := map[int]struct{}{}
	for _, s := range opts.Seasons {
		want[s] = struct{}{}
	}

	kept := make([]int, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if r.PlayerID == "" {
			continue
		}
		if len(want) > 0 {
			if _, ok := want[r.Season]; !ok {
				continue
			}
		}
		if !opts.IncludePostseason && r.SeasonType != "" && r.SeasonType != RegularSeason {
			continue
		}
		kept = append(kept, i)
	}
	// LastNonNull fields follow week order.
	sort.SliceStable(kept, func(a, b int) bool { return rows[kept[a]].Week < rows[kept[b]].Week })

	groups := map[Key]*group{}
	order := make([]Key, 0)
	for _, i := range kept {
		r := &rows[i]
		k := Key{PlayerID: r.PlayerID, Season: r.Season, Team: r.Team}
		g, ok := groups[k]
		if !ok {
			g = &group{
				rec:   Record{PlayerID: r.PlayerID, Season: int32(r.Season), Team: r.Team},
				weeks: map[int]struct{}{},
				seen:  make([]bool, len(schema.WeeklyNumerics)),
			}
			groups[k] = g
			order = append(order, k)
		}
		if r.PlayerName != "" {
			g.rec.PlayerName = r.PlayerName
		}
		if r.Position != "" {
			g.rec.Position = r.Position
		}
		if r.PositionGroup != "" {
			g.rec.PositionGroup = r.PositionGroup
		}
		if r.Week > 0 {
			g.weeks[r.Week] = struct{}{}
		}
		if r.Games > g.maxGames {
			g.maxGames = r.Games
		}
		stats := g.rec.Stats()
		for j, nf := range schema.WeeklyNumerics {
			switch PolicyOf(nf.Name) {
			case Max:
				if !g.seen[j] || r.Stats[j] > *stats[j] {
					*stats[j] = r.Stats[j]
					g.seen[j] = true
				}
			default:
				*stats[j] += r.Stats[j]
			}
		}
	}

	out := make([]Record, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if g.maxGames > 0 {
			g.rec.GamesPlayed = int32(g.maxGames)
		} else {
			g.rec.GamesPlayed = int32(len(g.weeks))
		}
		out = append(out, g.rec)
	}
	SortRecords(out)
	return out
}

// SortRecords orders records by (player_name, season, team), then player_id.
func SortRecords(rs []Record) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.PlayerName != b.PlayerName {
			return a.PlayerName < b.PlayerName
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		return a.PlayerID < b.PlayerID
	})
}

// Merge combines two partial records for the same key: Sum fields add, Max
// fields take the larger value and games add. Identity fields come from b
// when set, otherwise a.
func Merge(a, b Record) Record {
	out := a
	if b.PlayerName != "" {
		out.PlayerName = b.PlayerName
	}
	if b.Position != "" {
		out.Position = b.Position
	}
	if b.PositionGroup != "" {
		out.PositionGroup = b.PositionGroup
	}
	out.GamesPlayed = a.GamesPlayed + b.GamesPlayed
	dst, src := out.Stats(), b.Stats()
	for j, nf := range schema.WeeklyNumerics {
		switch PolicyOf(nf.Name) {
		case Max:
			if *src[j] > *dst[j] {
				*dst[j] = *src[j]
			}
		default:
			*dst[j] += *src[j]
		}
	}
	return out
}
