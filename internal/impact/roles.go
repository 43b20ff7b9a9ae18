// Package impact reduces play-by-play rows to per-season EPA/WPA sums for
// each role a player can hold on a play.
package impact

// Role names a family of play-by-play player columns.
type Role string

const (
	RoleQB      Role = "qb"
	RoleSkill   Role = "skill"
	RoleDefense Role = "def"
	RoleOL      Role = "ol"
	RoleKicker  Role = "kicker"
	RolePunter  Role = "punter"
)

// Roles lists every role in output column order.
var Roles = []Role{RoleQB, RoleSkill, RoleDefense, RoleOL, RoleKicker, RolePunter}

var (
	qbColumns = []string{
		"passer_player_id",
		"rusher_player_id",
		"lateral_rusher_player_id",
	}
	rusherColumns = []string{
		"rusher_player_id",
		"lateral_rusher_player_id",
	}
	receiverColumns = []string{
		"receiver_player_id",
		"lateral_receiver_player_id",
		"target_player_id",
		"targeted_player_id",
	}
	defenseColumns = []string{
		"solo_tackle_1_player_id",
		"solo_tackle_2_player_id",
		"assist_tackle_1_player_id",
		"assist_tackle_2_player_id",
		"assist_tackle_3_player_id",
		"assist_tackle_4_player_id",
		"tackle_with_assist_1_player_id",
		"tackle_with_assist_2_player_id",
		"tackle_with_assist_3_player_id",
		"tackle_with_assist_4_player_id",
		"pass_defense_1_player_id",
		"pass_defense_2_player_id",
		"interception_player_id",
		"sack_player_id",
		"half_sack_1_player_id",
		"half_sack_2_player_id",
		"forced_fumble_player_1_player_id",
		"forced_fumble_player_2_player_id",
		"fumble_recovery_1_player_id",
		"fumble_recovery_2_player_id",
	}
	olColumns     = []string{"penalty_player_id", "penalty_player_id_1", "penalty_player_id_2"}
	kickerColumns = []string{"kicker_player_id", "kickoff_player_id"}
	punterColumns = []string{"punter_player_id"}
)

// Columns returns the play-by-play columns that can name a player in role r.
func Columns(r Role) []string {
	switch r {
	case RoleQB:
		return qbColumns
	case RoleSkill:
		out := append([]string{}, rusherColumns...)
		return append(out, receiverColumns...)
	case RoleDefense:
		return defenseColumns
	case RoleOL:
		return olColumns
	case RoleKicker:
		return kickerColumns
	case RolePunter:
		return punterColumns
	}
	return nil
}

// Record is one player-season row of the impacts cache.
type Record struct {
	PlayerID string `parquet:"player_id" json:"player_id"`
	Season   int32  `parquet:"season" json:"season"`

	QBEPA float64 `parquet:"qb_epa" json:"qb_epa"`
	QBWPA float64 `parquet:"qb_wpa" json:"qb_wpa"`

	SkillEPA           float64 `parquet:"skill_epa" json:"skill_epa"`
	SkillWPA           float64 `parquet:"skill_wpa" json:"skill_wpa"`
	SkillRush20Plus    int32   `parquet:"skill_rush_20_plus" json:"skill_rush_20_plus"`
	SkillRec20Plus     int32   `parquet:"skill_rec_20_plus" json:"skill_rec_20_plus"`
	SkillRecFirstDowns int32   `parquet:"skill_rec_first_downs" json:"skill_rec_first_downs"`

	DefEPA float64 `parquet:"def_epa" json:"def_epa"`
	DefWPA float64 `parquet:"def_wpa" json:"def_wpa"`

	OLEPA float64 `parquet:"ol_epa" json:"ol_epa"`
	OLWPA float64 `parquet:"ol_wpa" json:"ol_wpa"`

	KickerEPA float64 `parquet:"kicker_epa" json:"kicker_epa"`
	KickerWPA float64 `parquet:"kicker_wpa" json:"kicker_wpa"`

	PunterEPA float64 `parquet:"punter_epa" json:"punter_epa"`
	PunterWPA float64 `parquet:"punter_wpa" json:"punter_wpa"`
}

// Key identifies an impact record.
type Key struct {
	PlayerID string
	Season   int
}

func (r *Record) Key() Key { return Key{PlayerID: r.PlayerID, Season: int(r.Season)} }

// add folds one role's sums into the record.
func (r *Record) add(role Role, s sums) {
	switch role {
	case RoleQB:
		r.QBEPA += s.epa
		r.QBWPA += s.wpa
	case RoleSkill:
		r.SkillEPA += s.epa
		r.SkillWPA += s.wpa
		r.SkillRush20Plus += s.rush20
		r.SkillRec20Plus += s.rec20
		r.SkillRecFirstDowns += s.recFD
	case RoleDefense:
		r.DefEPA += s.epa
		r.DefWPA += s.wpa
	case RoleOL:
		r.OLEPA += s.epa
		r.OLWPA += s.wpa
	case RoleKicker:
		r.KickerEPA += s.epa
		r.KickerWPA += s.wpa
	case RolePunter:
		r.PunterEPA += s.epa
		r.PunterWPA += s.wpa
	}
}

// EPA returns the efficiency sum of one role.
func (r *Record) EPA(role Role) float64 {
	switch role {
	case RoleQB:
		return r.QBEPA
	case RoleSkill:
		return r.SkillEPA
	case RoleDefense:
		return r.DefEPA
	case RoleOL:
		return r.OLEPA
	case RoleKicker:
		return r.KickerEPA
	case RolePunter:
		return r.PunterEPA
	}
	return 0
}
