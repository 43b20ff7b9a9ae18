package impact

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// sums holds one play's (or one player-season's) contribution to a role.
type sums struct {
	epa, wpa             float64
	rush20, rec20, recFD int32
}

// playKey is the dedupe key of an exploded role entry.
type playKey struct {
	season int
	game   string
	play   string
	player string
}

// plays is a play-by-play frame with its shared column indexes resolved.
type plays struct {
	f        *schema.Frame
	season   int
	seasonTy int
	game     int
	play     int
	epa      int
	wpa      int
	qbEPA    int
	qbWPA    int
	dropback int
	yards    int
	complete int
	firstDn  int

	postseason bool
}

func newPlays(f *schema.Frame) *plays {
	return &plays{
		f:        f,
		season:   f.Index("season"),
		seasonTy: f.Index("season_type"),
		game:     f.Index("game_id"),
		play:     f.Index("play_id"),
		epa:      f.Index("epa"),
		wpa:      f.Index("wpa"),
		qbEPA:    f.Index("qb_epa"),
		qbWPA:    f.Index("qb_wpa"),
		dropback: f.Index("qb_dropback"),
		yards:    f.Index("yards_gained"),
		complete: f.Index("complete_pass"),
		firstDn:  f.Index("first_down"),
	}
}

// num parses a cell as float, treating null or absent as 0.
func (p *plays) num(row, ci int) float64 {
	if ci < 0 {
		return 0
	}
	v, _ := schema.ParseFloat(p.f.Cell(row, ci))
	return v
}

// key returns the (season, game, play) part of a dedupe key. Rows without
// a play id fall back to their row number.
func (p *plays) key(row, season int) playKey {
	k := playKey{season: season, game: "0"}
	if p.game >= 0 {
		k.game = p.f.Cell(row, p.game)
	}
	if p.play >= 0 && !schema.IsNull(p.f.Cell(row, p.play)) {
		k.play = p.f.Cell(row, p.play)
	} else {
		k.play = "#" + strconv.Itoa(row)
	}
	return k
}

// keep reports whether a row enters aggregation and returns its season.
func (p *plays) keep(row int) (int, bool) {
	if !p.postseason && p.seasonTy >= 0 && !strings.EqualFold(p.f.Cell(row, p.seasonTy), "REG") {
		return 0, false
	}
	season := schema.ParseInt(p.f.Cell(row, p.season), 0)
	return season, season != 0
}

// qbRush reports whether a rush on this row counts toward the quarterback
// role: qb_epa must be non-null when that column exists, otherwise
// qb_dropback must be 1. With neither column no rush qualifies.
func (p *plays) qbRush(row int) bool {
	switch {
	case p.qbEPA >= 0:
		return !schema.IsNull(p.f.Cell(row, p.qbEPA))
	case p.dropback >= 0:
		v, ok := schema.ParseFloat(p.f.Cell(row, p.dropback))
		return ok && v == 1
	}
	return false
}

// metrics returns the EPA/WPA of a row for role r. The quarterback role
// reads qb_epa/qb_wpa when those columns exist.
func (p *plays) metrics(row int, r Role) (float64, float64) {
	epa, wpa := p.epa, p.wpa
	if r == RoleQB {
		if p.qbEPA >= 0 {
			epa = p.qbEPA
		}
		if p.qbWPA >= 0 {
			wpa = p.qbWPA
		}
	}
	return p.num(row, epa), p.num(row, wpa)
}

func (p *plays) skillFlags(row int, col string) (rush20, rec20, recFD int32) {
	yards := p.num(row, p.yards)
	for _, c := range rusherColumns {
		if c == col {
			if yards >= 20 {
				rush20 = 1
			}
			return
		}
	}
	if p.num(row, p.complete) == 1 {
		if yards >= 20 {
			rec20 = 1
		}
		if p.num(row, p.firstDn) == 1 {
			recFD = 1
		}
	}
	return
}

// explode builds one entry per (role column, play) and dedupes them on
// (season, game, play, player), keeping the first metrics and the max of
// each flag. Entries are returned in first-seen order. The quarterback
// role takes only the first qualifying column of a play: the passer, else
// a qualifying rusher, else a qualifying lateral rusher.
func (p *plays) explode(r Role) ([]playKey, map[playKey]*sums) {
	type col struct {
		name string
		idx  int
	}
	var cols []col
	for _, c := range Columns(r) {
		if i := p.f.Index(c); i >= 0 {
			cols = append(cols, col{c, i})
		}
	}
	entries := map[playKey]*sums{}
	if len(cols) == 0 {
		return nil, entries
	}

	var order []playKey
	for row := 0; row < p.f.Len(); row++ {
		season, ok := p.keep(row)
		if !ok {
			continue
		}
		base := p.key(row, season)
		for _, c := range cols {
			player := p.f.Cell(row, c.idx)
			if schema.IsNull(player) {
				continue
			}
			if r == RoleQB && c.name != "passer_player_id" && !p.qbRush(row) {
				continue
			}
			k := base
			k.player = player
			var s sums
			s.epa, s.wpa = p.metrics(row, r)
			if r == RoleSkill {
				s.rush20, s.rec20, s.recFD = p.skillFlags(row, c.name)
			}
			if prev, dup := entries[k]; dup {
				prev.rush20 = max(prev.rush20, s.rush20)
				prev.rec20 = max(prev.rec20, s.rec20)
				prev.recFD = max(prev.recFD, s.recFD)
				continue
			}
			entries[k] = &s
			order = append(order, k)
			if r == RoleQB {
				break
			}
		}
	}
	return order, entries
}

// Options controls Aggregate.
type Options struct {
	// IncludePostseason keeps non-REG plays when season_type is present.
	IncludePostseason bool
}

// Aggregate reduces a play-by-play frame to one Record per (player_id,
// season). The season column is required; rows are limited to REG when
// season_type is present unless opts.IncludePostseason. Roles whose columns
// are all absent contribute nothing. The result is the full outer merge of
// every role, zero-filled and sorted by (player_id, season).
func Aggregate(f *schema.Frame, opts Options) ([]Record, error) {
	if err := f.Require("season"); err != nil {
		return nil, fmt.Errorf("impact: %w", err)
	}
	p := newPlays(f)
	p.postseason = opts.IncludePostseason

	recs := map[Key]*Record{}
	for _, r := range Roles {
		order, entries := p.explode(r)
		for _, pk := range order {
			k := Key{PlayerID: pk.player, Season: pk.season}
			rec, ok := recs[k]
			if !ok {
				rec = &Record{PlayerID: k.PlayerID, Season: int32(k.Season)}
				recs[k] = rec
			}
			rec.add(r, *entries[pk])
		}
	}

	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *rec)
	}
	SortRecords(out)
	return out, nil
}

// SortRecords orders records by (player_id, season).
func SortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].PlayerID != rs[j].PlayerID {
			return rs[i].PlayerID < rs[j].PlayerID
		}
		return rs[i].Season < rs[j].Season
	})
}

// Index maps records by key. Later duplicates replace earlier ones.
func Index(rs []Record) map[Key]Record {
	m := make(map[Key]Record, len(rs))
	for _, r := range rs {
		m[r.Key()] = r
	}
	return m
}
