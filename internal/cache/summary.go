package cache

import (
	"sort"

	"github.com/tyler180/nfl-datastore/internal/impact"
	"github.com/tyler180/nfl-datastore/internal/season"
)

// SummaryRecord is one row of the merged summary artifact: a season row
// with its player-season impacts and two derived totals.
type SummaryRecord struct {
	season.Record

	PfrID string `parquet:"pfr_id" json:"pfr_id,omitempty"`

	QBEPA              float64 `parquet:"qb_epa" json:"qb_epa"`
	QBWPA              float64 `parquet:"qb_wpa" json:"qb_wpa"`
	SkillEPA           float64 `parquet:"skill_epa" json:"skill_epa"`
	SkillWPA           float64 `parquet:"skill_wpa" json:"skill_wpa"`
	SkillRush20Plus    int32   `parquet:"skill_rush_20_plus" json:"skill_rush_20_plus"`
	SkillRec20Plus     int32   `parquet:"skill_rec_20_plus" json:"skill_rec_20_plus"`
	SkillRecFirstDowns int32   `parquet:"skill_rec_first_downs" json:"skill_rec_first_downs"`
	DefEPA             float64 `parquet:"def_epa" json:"def_epa"`
	DefWPA             float64 `parquet:"def_wpa" json:"def_wpa"`
	OLEPA              float64 `parquet:"ol_epa" json:"ol_epa"`
	OLWPA              float64 `parquet:"ol_wpa" json:"ol_wpa"`
	KickerEPA          float64 `parquet:"kicker_epa" json:"kicker_epa"`
	KickerWPA          float64 `parquet:"kicker_wpa" json:"kicker_wpa"`
	PunterEPA          float64 `parquet:"punter_epa" json:"punter_epa"`
	PunterWPA          float64 `parquet:"punter_wpa" json:"punter_wpa"`

	SnapsTotal      int64 `parquet:"snaps_total" json:"snaps_total"`
	TotalTouchdowns int32 `parquet:"total_touchdowns" json:"total_touchdowns"`
}

// Summarize left-joins impacts onto season rows by (player_id, season)
// and derives snaps_total and total_touchdowns. Every team row of a
// player-season carries that season's full impacts. pfrIDs may be nil.
// Output is sorted by (player_name, season, team).
func Summarize(rows []season.Record, impacts []impact.Record, pfrIDs func(playerID string) (string, bool)) []SummaryRecord {
	byKey := impact.Index(impacts)
	out := make([]SummaryRecord, 0, len(rows))
	for _, r := range rows {
		s := SummaryRecord{Record: r}
		if pfrIDs != nil {
			if id, ok := pfrIDs(r.PlayerID); ok {
				s.PfrID = id
			}
		}
		s.SnapsTotal = int64(r.OffenseSnaps + r.DefenseSnaps + r.SpecialTeamsSnaps)
		s.TotalTouchdowns = int32(r.PassingTDs + r.RushingTDs + r.ReceivingTDs)
		if im, ok := byKey[impact.Key{PlayerID: r.PlayerID, Season: int(r.Season)}]; ok {
			s.QBEPA, s.QBWPA = im.QBEPA, im.QBWPA
			s.SkillEPA, s.SkillWPA = im.SkillEPA, im.SkillWPA
			s.SkillRush20Plus = im.SkillRush20Plus
			s.SkillRec20Plus = im.SkillRec20Plus
			s.SkillRecFirstDowns = im.SkillRecFirstDowns
			s.DefEPA, s.DefWPA = im.DefEPA, im.DefWPA
			s.OLEPA, s.OLWPA = im.OLEPA, im.OLWPA
			s.KickerEPA, s.KickerWPA = im.KickerEPA, im.KickerWPA
			s.PunterEPA, s.PunterWPA = im.PunterEPA, im.PunterWPA
		}
		out = append(out, s)
	}
	SortSummaries(out)
	return out
}

// SortSummaries orders rows by (player_name, season, team), then player_id.
func SortSummaries(rs []SummaryRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := &rs[i], &rs[j]
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
