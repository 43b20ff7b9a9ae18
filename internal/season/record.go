// Package season reduces weekly player rows to one record per
// (player, season, team).
package season

import (
	"fmt"
	"reflect"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Policy is the reduction applied to a field within a group.
type Policy int

const (
	Sum Policy = iota
	Max
	// GamesPlayed takes the largest explicit games value when positive,
	// otherwise the number of distinct weeks.
	GamesPlayed
	// LastNonNull keeps the most recent non-empty value by week.
	LastNonNull
)

// Policies overrides the default Sum policy for individual stat fields.
var Policies = map[string]Policy{
	"fg_long":   Max,
	"punt_long": Max,
}

// PolicyOf returns the reduction policy of a stat field.
func PolicyOf(name string) Policy {
	if p, ok := Policies[name]; ok {
		return p
	}
	return Sum
}

// Record is one player-season-team row of the season cache.
type Record struct {
	PlayerID      string `parquet:"player_id" json:"player_id"`
	PlayerName    string `parquet:"player_name" json:"player_name"`
	Position      string `parquet:"position" json:"position"`
	PositionGroup string `parquet:"position_group" json:"position_group"`
	Season        int32  `parquet:"season" json:"season"`
	Team          string `parquet:"team" json:"team"`
	GamesPlayed   int32  `parquet:"games_played" json:"games_played"`

	OffenseSnaps      float64 `parquet:"offense_snaps" json:"offense_snaps"`
	DefenseSnaps      float64 `parquet:"defense_snaps" json:"defense_snaps"`
	SpecialTeamsSnaps float64 `parquet:"special_teams_snaps" json:"special_teams_snaps"`

	PassCompletions float64 `parquet:"pass_completions" json:"pass_completions"`
	PassAttempts    float64 `parquet:"pass_attempts" json:"pass_attempts"`
	PassingYards    float64 `parquet:"passing_yards" json:"passing_yards"`
	PassingTDs      float64 `parquet:"passing_tds" json:"passing_tds"`
	PassingInts     float64 `parquet:"passing_ints" json:"passing_ints"`
	SacksTaken      float64 `parquet:"sacks_taken" json:"sacks_taken"`
	SackYards       float64 `parquet:"sack_yards" json:"sack_yards"`

	RushingAttempts float64 `parquet:"rushing_attempts" json:"rushing_attempts"`
	RushingYards    float64 `parquet:"rushing_yards" json:"rushing_yards"`
	RushingTDs      float64 `parquet:"rushing_tds" json:"rushing_tds"`

	ReceivingTargets    float64 `parquet:"receiving_targets" json:"receiving_targets"`
	ReceivingReceptions float64 `parquet:"receiving_receptions" json:"receiving_receptions"`
	ReceivingYards      float64 `parquet:"receiving_yards" json:"receiving_yards"`
	ReceivingTDs        float64 `parquet:"receiving_tds" json:"receiving_tds"`

	TotalFumbles float64 `parquet:"total_fumbles" json:"total_fumbles"`
	FumblesLost  float64 `parquet:"fumbles_lost" json:"fumbles_lost"`

	DefTacklesSolo      float64 `parquet:"def_tackles_solo" json:"def_tackles_solo"`
	DefTackleAssists    float64 `parquet:"def_tackle_assists" json:"def_tackle_assists"`
	DefTacklesForLoss   float64 `parquet:"def_tackles_for_loss" json:"def_tackles_for_loss"`
	DefSacks            float64 `parquet:"def_sacks" json:"def_sacks"`
	DefQBHits           float64 `parquet:"def_qb_hits" json:"def_qb_hits"`
	DefForcedFumbles    float64 `parquet:"def_forced_fumbles" json:"def_forced_fumbles"`
	DefFumbleRecoveries float64 `parquet:"def_fumble_recoveries" json:"def_fumble_recoveries"`
	DefSafeties         float64 `parquet:"def_safeties" json:"def_safeties"`
	DefPassDefended     float64 `parquet:"def_pass_defended" json:"def_pass_defended"`
	DefInterceptions    float64 `parquet:"def_interceptions" json:"def_interceptions"`
	DefTDs              float64 `parquet:"def_tds" json:"def_tds"`

	Penalties           float64 `parquet:"penalties" json:"penalties"`
	PenaltiesDeclined   float64 `parquet:"penalties_declined" json:"penalties_declined"`
	PenaltiesOffsetting float64 `parquet:"penalties_offsetting" json:"penalties_offsetting"`
	PenaltiesHolding    float64 `parquet:"penalties_holding" json:"penalties_holding"`
	PenaltiesFalseStart float64 `parquet:"penalties_false_start" json:"penalties_false_start"`

	FGM       float64 `parquet:"fgm" json:"fgm"`
	FGA       float64 `parquet:"fga" json:"fga"`
	FGLong    float64 `parquet:"fg_long" json:"fg_long"`
	FGM0to19  float64 `parquet:"fgm_0_19" json:"fgm_0_19"`
	FGA0to19  float64 `parquet:"fga_0_19" json:"fga_0_19"`
	FGM20to29 float64 `parquet:"fgm_20_29" json:"fgm_20_29"`
	FGA20to29 float64 `parquet:"fga_20_29" json:"fga_20_29"`
	FGM30to39 float64 `parquet:"fgm_30_39" json:"fgm_30_39"`
	FGA30to39 float64 `parquet:"fga_30_39" json:"fga_30_39"`
	FGM40to49 float64 `parquet:"fgm_40_49" json:"fgm_40_49"`
	FGA40to49 float64 `parquet:"fga_40_49" json:"fga_40_49"`
	FGM50to59 float64 `parquet:"fgm_50_59" json:"fgm_50_59"`
	FGA50to59 float64 `parquet:"fga_50_59" json:"fga_50_59"`
	FGM60Plus float64 `parquet:"fgm_60_plus" json:"fgm_60_plus"`
	FGA60Plus float64 `parquet:"fga_60_plus" json:"fga_60_plus"`
	XPM       float64 `parquet:"xpm" json:"xpm"`
	XPA       float64 `parquet:"xpa" json:"xpa"`

	Kickoffs          float64 `parquet:"kickoffs" json:"kickoffs"`
	KickoffTouchbacks float64 `parquet:"kickoff_touchbacks" json:"kickoff_touchbacks"`

	Punts                  float64 `parquet:"punts" json:"punts"`
	PuntYards              float64 `parquet:"punt_yards" json:"punt_yards"`
	PuntLong               float64 `parquet:"punt_long" json:"punt_long"`
	PuntReturnYardsAllowed float64 `parquet:"punt_return_yards_allowed" json:"punt_return_yards_allowed"`
	NetPuntYards           float64 `parquet:"net_punt_yards" json:"net_punt_yards"`
	PuntTouchbacks         float64 `parquet:"punt_touchbacks" json:"punt_touchbacks"`
	PuntsInside20          float64 `parquet:"punts_inside_20" json:"punts_inside_20"`
	PuntsBlocked           float64 `parquet:"punts_blocked" json:"punts_blocked"`
}

// Key identifies a record.
type Key struct {
	PlayerID string
	Season   int
	Team     string
}

func (r *Record) Key() Key { return Key{PlayerID: r.PlayerID, Season: int(r.Season), Team: r.Team} }

// statFields holds the struct field index of every schema.WeeklyNumerics
// entry, in that order.
var statFields = func() []int {
	t := reflect.TypeOf(Record{})
	byTag := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("parquet"); tag != "" && t.Field(i).Type.Kind() == reflect.Float64 {
			byTag[tag] = i
		}
	}
	out := make([]int, len(schema.WeeklyNumerics))
	for j, nf := range schema.WeeklyNumerics {
		i, ok := byTag[nf.Name]
		if !ok {
			panic(fmt.Sprintf("season: Record has no field for %q", nf.Name))
		}
		out[j] = i
	}
	return out
}()

// Stats returns pointers to every stat field in schema.WeeklyNumerics order.
func (r *Record) Stats() []*float64 {
	v := reflect.ValueOf(r).Elem()
	out := make([]*float64, len(statFields))
	for j, i := range statFields {
		out[j] = v.Field(i).Addr().Interface().(*float64)
	}
	return out
}

// Stat returns one stat by canonical name; unknown names are 0.
func (r *Record) Stat(name string) float64 {
	for j, nf := range schema.WeeklyNumerics {
		if nf.Name == name {
			return reflect.ValueOf(r).Elem().Field(statFields[j]).Float()
		}
	}
	return 0
}
