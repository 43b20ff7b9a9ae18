package resolver

import (
	"strings"
	"time"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Profile is the resolved identity of one player.
type Profile struct {
	FullName      string `json:"full_name"`
	GsisID        string `json:"gsis_id,omitempty"`
	PfrID         string `json:"pfr_id,omitempty"`
	PffID         string `json:"pff_id,omitempty"`
	EspnID        string `json:"espn_id,omitempty"`
	SportradarID  string `json:"sportradar_id,omitempty"`
	EsbID         string `json:"esb_id,omitempty"`
	OtcID         string `json:"otc_id,omitempty"`
	BirthDate     string `json:"birth_date,omitempty"` // YYYY-MM-DD
	College       string `json:"college,omitempty"`
	Height        int    `json:"height,omitempty"`
	Weight        int    `json:"weight,omitempty"`
	DraftYear     int    `json:"draft_year,omitempty"`
	DraftRound    int    `json:"draft_round,omitempty"` // 0 when undrafted
	DraftPick     int    `json:"draft_pick,omitempty"`
	DraftTeam     string `json:"draft_team,omitempty"`
	Position      string `json:"position,omitempty"`
	PositionGroup string `json:"position_group,omitempty"`
	LatestTeam    string `json:"latest_team,omitempty"`
	Status        string `json:"status,omitempty"`
	YearsExp      int    `json:"years_of_experience,omitempty"`
	RookieSeason  int    `json:"rookie_season,omitempty"`
	LastSeason    int    `json:"last_season,omitempty"`
}

// row reads one player row, falling back to the fantasy id feed (joined on
// gsis_id) for columns the directory leaves empty.
type row struct {
	f   *schema.Frame
	i   int
	ids *schema.Frame
	j   int // row in ids, or -1
}

func (r row) get(col string) string {
	return r.f.Value(r.i, col)
}

func (r row) ff(col string) string {
	if r.ids == nil || r.j < 0 {
		return ""
	}
	return r.ids.Value(r.j, col)
}

// first returns the first non-null value of cols, then of the same cols in
// the id feed.
func (r row) first(cols ...string) string {
	for _, c := range cols {
		if v := r.get(c); !schema.IsNull(v) {
			return v
		}
	}
	for _, c := range cols {
		if v := r.ff(c); !schema.IsNull(v) {
			return v
		}
	}
	return ""
}

func (r row) int(cols ...string) int {
	v := r.first(cols...)
	if f, ok := schema.ParseFloat(v); ok {
		return int(f)
	}
	return 0
}

func (r row) fullName() string {
	if v := r.get("full_name"); !schema.IsNull(v) {
		return v
	}
	first, last := r.get("first_name"), r.get("last_name")
	if schema.IsNull(first) {
		first = ""
	}
	if schema.IsNull(last) {
		last = ""
	}
	return strings.TrimSpace(first + " " + last)
}

func parseDate(v string) string {
	if v == "" {
		return ""
	}
	if len(v) > 10 {
		v = v[:10]
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (r row) profile() Profile {
	name := r.fullName()
	if name == "" {
		name = r.first("display_name", "name")
	}
	if name == "" {
		name = "Unknown Player"
	}
	return Profile{
		FullName:      name,
		GsisID:        r.first("gsis_id"),
		PfrID:         r.first("pfr_id"),
		PffID:         r.first("pff_id"),
		EspnID:        r.first("espn_id"),
		SportradarID:  r.first("sportradar_id"),
		EsbID:         r.first("esb_id"),
		OtcID:         r.first("otc_id"),
		BirthDate:     parseDate(r.first("birth_date", "birthdate")),
		College:       r.first("college_name", "college"),
		Height:        r.int("height"),
		Weight:        r.int("weight"),
		DraftYear:     r.int("draft_year"),
		DraftRound:    r.int("draft_round"),
		DraftPick:     r.int("draft_pick"),
		DraftTeam:     strings.ToUpper(r.first("draft_team")),
		Position:      r.first("position"),
		PositionGroup: r.first("position_group"),
		LatestTeam:    strings.ToUpper(r.first("latest_team", "team")),
		Status:        r.first("status"),
		YearsExp:      r.int("years_of_experience"),
		RookieSeason:  r.int("rookie_season"),
		LastSeason:    r.int("last_season"),
	}
}
