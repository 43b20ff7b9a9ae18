package nflverse

import (
	"strconv"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// SnapKey identifies one player's season with one team in PFR id space.
type SnapKey struct {
	PfrID  string
	Season int
	Team   string
}

// SnapTotal is a season sum of weekly snaps.
type SnapTotal struct {
	Player       string
	Position     string
	Offense      int
	Defense      int
	SpecialTeams int
}

// SnapTotals sums the weekly snap_counts feed per (pfr_player_id, season,
// team). Only regular-season weeks count when game_type is present; teams
// are upper-cased but otherwise left in the feed's abbreviation scheme.
func SnapTotals(f *schema.Frame) (map[SnapKey]SnapTotal, error) {
	if err := f.Require("season", "team", "pfr_player_id"); err != nil {
		return nil, err
	}
	iSeason := f.Index("season")
	iTeam := f.Index("team")
	iPfr := f.Index("pfr_player_id")
	iType := f.Index("game_type")
	iPlayer := f.Index("player")
	iPos := f.Index("position")

	out := map[SnapKey]SnapTotal{}
	for row := 0; row < f.Len(); row++ {
		if iType >= 0 {
			if gt := strings.ToUpper(f.Cell(row, iType)); gt != "" && gt != "REG" {
				continue
			}
		}
		id := strings.TrimSpace(f.Cell(row, iPfr))
		if schema.IsNull(id) {
			continue
		}
		season, err := strconv.Atoi(strings.TrimSpace(f.Cell(row, iSeason)))
		if err != nil {
			continue
		}
		k := SnapKey{PfrID: id, Season: season, Team: strings.ToUpper(strings.TrimSpace(f.Cell(row, iTeam)))}
		t := out[k]
		if iPlayer >= 0 && t.Player == "" {
			t.Player = f.Cell(row, iPlayer)
		}
		if iPos >= 0 {
			if p := strings.ToUpper(strings.TrimSpace(f.Cell(row, iPos))); p != "" {
				t.Position = p
			}
		}
		t.Offense += snapInt(f, row, "offense_snaps")
		t.Defense += snapInt(f, row, "defense_snaps")
		t.SpecialTeams += snapInt(f, row, "st_snaps")
		out[k] = t
	}
	return out, nil
}

func snapInt(f *schema.Frame, row int, col string) int {
	v, ok := f.Float(row, col)
	if !ok {
		return 0
	}
	return int(v)
}
