package schema

// Canonical string fields of a weekly player-stats row.
const (
	FieldTeam          = "team"
	FieldPlayerName    = "player_name"
	FieldPlayerID      = "player_id"
	FieldPosition      = "position"
	FieldPositionGroup = "position_group"
)

// WeeklyStrings maps the weekly player-stats feed's identity columns.
var WeeklyStrings = []StringField{
	{Name: FieldTeam, Candidates: []string{"recent_team", "team", "current_team_abbr"}},
	{Name: FieldPlayerName, Candidates: []string{"player_display_name", "player_name"}},
	{Name: FieldPlayerID, Candidates: []string{"player_id", "gsis_id"}},
	{Name: FieldPosition, Candidates: []string{"position", "player_position"}},
	{Name: FieldPositionGroup, Candidates: []string{"position_group", "player_position_group"}},
}

// GamesCandidates are the columns some feeds use to report games directly.
var GamesCandidates = []string{"games", "games_played"}

// WeeklyNumerics maps every summed stat column. Order is the output column order.
var WeeklyNumerics = []NumericField{
	{Name: "offense_snaps", Candidates: []string{"offense_snaps"}},
	{Name: "defense_snaps", Candidates: []string{"defense_snaps"}},
	{Name: "special_teams_snaps", Candidates: []string{"special_teams_snaps"}},
	{Name: "pass_completions", Candidates: []string{"pass_completions", "completions"}},
	{Name: "pass_attempts", Candidates: []string{"pass_attempts", "attempts"}},
	{Name: "passing_yards", Candidates: []string{"passing_yards", "pass_yds", "pass_yards"}},
	{Name: "passing_tds", Candidates: []string{"passing_tds"}},
	{Name: "passing_ints", Candidates: []string{"passing_interceptions", "interceptions_thrown", "interceptions"}},
	{Name: "sacks_taken", Candidates: []string{"sacks_suffered", "sacks_taken"}},
	{Name: "sack_yards", Candidates: []string{"sack_yards_lost", "sack_yards"}},
	{Name: "rushing_attempts", Candidates: []string{"rushing_attempts", "rush_attempts", "carries"}},
	{Name: "rushing_yards", Candidates: []string{"rushing_yards", "rush_yards"}},
	{Name: "rushing_tds", Candidates: []string{"rushing_tds", "rush_tds"}},
	{Name: "receiving_targets", Candidates: []string{"receiving_targets", "targets"}},
	{Name: "receiving_receptions", Candidates: []string{"receiving_receptions", "receptions"}},
	{Name: "receiving_yards", Candidates: []string{"receiving_yards", "rec_yards"}},
	{Name: "receiving_tds", Candidates: []string{"receiving_tds", "rec_tds"}},
	{Name: "total_fumbles", Candidates: []string{"total_fumbles", "fumbles"}},
	{Name: "fumbles_lost", Candidates: []string{"fumbles_lost"}},
	{Name: "def_tackles_solo", Candidates: []string{"def_tackles_solo", "solo_tackles"}},
	{Name: "def_tackle_assists", Candidates: []string{"def_tackle_assists", "assist_tackles"}},
	{Name: "def_tackles_for_loss", Candidates: []string{"def_tackles_for_loss", "tackles_for_loss"}},
	{Name: "def_sacks", Candidates: []string{"def_sacks", "sacks"}},
	{Name: "def_qb_hits", Candidates: []string{"def_qb_hits", "qb_hits"}},
	{Name: "def_forced_fumbles", Candidates: []string{"def_fumbles_forced", "def_forced_fumbles", "forced_fumbles"}},
	{Name: "def_fumble_recoveries", Candidates: []string{"fumble_recovery_opp", "fumble_recoveries"}},
	{Name: "def_safeties", Candidates: []string{"def_safeties", "safeties"}},
	{Name: "def_pass_defended", Candidates: []string{"def_pass_defended", "passes_defended"}},
	{Name: "def_interceptions", Candidates: []string{"def_interceptions"}},
	{Name: "def_tds", Candidates: []string{"def_tds", "defensive_touchdowns"}},
	{Name: "penalties", Candidates: []string{"penalties", "total_penalties"}},
	{Name: "penalties_declined", Candidates: []string{"penalties_declined"}},
	{Name: "penalties_offsetting", Candidates: []string{"penalties_offsetting", "penalties_offset"}},
	{Name: "penalties_holding", Candidates: []string{"penalties_holding", "holding_penalties"}},
	{Name: "penalties_false_start", Candidates: []string{"penalties_false_start", "false_start_penalties"}},
	{Name: "fgm", Candidates: []string{"fgm", "fg_made", "field_goals_made"}},
	{Name: "fga", Candidates: []string{"fga", "fg_att", "field_goals_attempted"}},
	{Name: "fg_long", Candidates: []string{"fg_long", "field_goal_long"}},
	{Name: "fgm_0_19", Candidates: []string{"fgm_0_19", "fg_made_0_19", "field_goals_made_0_19"}},
	{Name: "fga_0_19", Candidates: []string{"fga_0_19", "field_goals_attempted_0_19"}},
	{Name: "fgm_20_29", Candidates: []string{"fgm_20_29", "fg_made_20_29", "field_goals_made_20_29"}},
	{Name: "fga_20_29", Candidates: []string{"fga_20_29", "field_goals_attempted_20_29"}},
	{Name: "fgm_30_39", Candidates: []string{"fgm_30_39", "fg_made_30_39", "field_goals_made_30_39"}},
	{Name: "fga_30_39", Candidates: []string{"fga_30_39", "field_goals_attempted_30_39"}},
	{Name: "fgm_40_49", Candidates: []string{"fgm_40_49", "fg_made_40_49", "field_goals_made_40_49"}},
	{Name: "fga_40_49", Candidates: []string{"fga_40_49", "field_goals_attempted_40_49"}},
	{Name: "fgm_50_59", Candidates: []string{"fgm_50_59", "fg_made_50_59", "field_goals_made_50_59"}},
	{Name: "fga_50_59", Candidates: []string{"fga_50_59", "field_goals_attempted_50_59"}},
	{Name: "fgm_60_plus", Candidates: []string{"fgm_60_plus", "fg_made_60_", "field_goals_made_60_plus"}},
	{Name: "fga_60_plus", Candidates: []string{"fga_60_plus", "field_goals_attempted_60_plus"}},
	{Name: "xpm", Candidates: []string{"xpm", "pat_made", "extra_points_made"}},
	{Name: "xpa", Candidates: []string{"xpa", "pat_att", "extra_points_attempted"}},
	{Name: "kickoffs", Candidates: []string{"kickoffs", "kickoff_attempts"}},
	{Name: "kickoff_touchbacks", Candidates: []string{"kickoff_touchbacks", "touchbacks"}},
	{Name: "punts", Candidates: []string{"punts"}},
	{Name: "punt_yards", Candidates: []string{"punt_yards", "punting_yards"}},
	{Name: "punt_long", Candidates: []string{"punt_long", "long_punt"}},
	{Name: "punt_return_yards_allowed", Candidates: []string{"punt_return_yards_allowed", "opponent_punt_return_yards"}},
	{Name: "net_punt_yards", Candidates: []string{"net_punt_yards"}},
	{Name: "punt_touchbacks", Candidates: []string{"punt_touchbacks", "touchbacks"}},
	{Name: "punts_inside_20", Candidates: []string{"punts_inside_20"}},
	{Name: "punts_blocked", Candidates: []string{"punts_blocked"}},
}
