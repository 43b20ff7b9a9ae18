package season

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

func TestAggregate_TwoWeeksOneSeasonRow(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "season", "week", "team", "pass_yds"},
		[][]string{
			{"P1", "2023", "1", "KC", "300"},
			{"P1", "2023", "2", "KC", "250"},
		},
	)
	rows, err := FromFrame(f)
	require.NoError(t, err)

	got := Aggregate(rows, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].PlayerID)
	assert.Equal(t, int32(2023), got[0].Season)
	assert.Equal(t, "KC", got[0].Team)
	assert.Equal(t, 550.0, got[0].PassingYards)
	assert.Equal(t, int32(2), got[0].GamesPlayed)
}

func TestFromFrame_RequiresSeason(t *testing.T) {
	_, err := FromFrame(schema.New([]string{"player_id", "week"}, nil))
	assert.ErrorIs(t, err, schema.ErrMissingColumn)
}

func TestAggregate_RegularSeasonOnlyByDefault(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "player_name", "season", "season_type", "week", "recent_team", "rushing_yards"},
		[][]string{
			{"P2", "R. Back", "2023", "REG", "1", "BUF", "80"},
			{"P2", "R. Back", "2023", "POST", "19", "BUF", "120"},
		},
	)
	rows, err := FromFrame(f)
	require.NoError(t, err)

	reg := Aggregate(rows, Options{})
	require.Len(t, reg, 1)
	assert.Equal(t, 80.0, reg[0].RushingYards)

	all := Aggregate(rows, Options{IncludePostseason: true})
	require.Len(t, all, 1)
	assert.Equal(t, 200.0, all[0].RushingYards)
}

func TestAggregate_GroupsByTeamAndFiltersSeasons(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "player_display_name", "season", "week", "team", "position", "receptions"},
		[][]string{
			{"P3", "Traded Guy", "2022", "1", "NYJ", "HB", "3"},
			{"P3", "Traded Guy", "2022", "9", "", "HB", "4"},
			{"P3", "Traded Guy", "2022", "10", "MIA", "RB", "5"},
			{"P3", "Traded Guy", "2021", "1", "NYJ", "RB", "9"},
		},
	)
	rows, err := FromFrame(f)
	require.NoError(t, err)

	got := Aggregate(rows, Options{Seasons: []int{2022}})
	require.Len(t, got, 3)
	// sorted by (name, season, team): "" < MIA < NYJ
	assert.Equal(t, "", got[0].Team)
	assert.Equal(t, "MIA", got[1].Team)
	assert.Equal(t, "NYJ", got[2].Team)
	assert.Equal(t, "RB", got[2].Position, "HB canonicalizes to RB")
	assert.Equal(t, 3.0, got[2].ReceivingReceptions)
}

func TestAggregate_GamesPreferExplicitPositive(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "season", "week", "games"},
		[][]string{
			{"P4", "2020", "1", "0"},
			{"P4", "2020", "2", "16"},
		},
	)
	rows, _ := FromFrame(f)
	got := Aggregate(rows, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, int32(16), got[0].GamesPlayed)
}

func TestAggregate_NullWeeksAreNotCounted(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "season", "week", "passing_yards"},
		[][]string{
			{"P5", "2021", "NA", "100"},
			{"P5", "2021", "3", "50"},
			{"P5", "2021", "", "10"},
		},
	)
	rows, _ := FromFrame(f)
	got := Aggregate(rows, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, int32(1), got[0].GamesPlayed)
	assert.Equal(t, 160.0, got[0].PassingYards)

	noWeek, _ := FromFrame(schema.New([]string{"player_id", "season"}, [][]string{{"P6", "2021"}}))
	got = Aggregate(noWeek, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, int32(0), got[0].GamesPlayed)
}

func TestAggregate_LastNonNullByWeekAndMaxPolicy(t *testing.T) {
	f := schema.New(
		[]string{"player_id", "player_name", "season", "week", "position", "fg_long", "fgm"},
		[][]string{
			{"K1", "New Name", "2023", "5", "", "48", "2"},
			{"K1", "Old Name", "2023", "1", "K", "55", "1"},
			{"K1", "", "2023", "7", "", "NA", "3"},
		},
	)
	rows, _ := FromFrame(f)
	got := Aggregate(rows, Options{})
	require.Len(t, got, 1)
	assert.Equal(t, "New Name", got[0].PlayerName)
	assert.Equal(t, "K", got[0].Position)
	assert.Equal(t, 55.0, got[0].FGLong)
	assert.Equal(t, 6.0, got[0].FGM)
}

func TestAggregate_SumIsAssociativeUnderRepartition(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	var rows []Row
	for week := 1; week <= 17; week++ {
		stats := make([]float64, len(schema.WeeklyNumerics))
		for j := range stats {
			stats[j] = float64(r.Intn(40))
		}
		rows = append(rows, Row{PlayerID: "P9", PlayerName: "Split", Season: 2023, Week: week, Team: "DET", Stats: stats})
	}

	for trial := 0; trial < 20; trial++ {
		var a, b []Row
		for _, row := range rows {
			if r.Intn(2) == 0 {
				a = append(a, row)
			} else {
				b = append(b, row)
			}
		}
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		whole := Aggregate(rows, Options{})[0]
		merged := Merge(Aggregate(a, Options{})[0], Aggregate(b, Options{})[0])

		ws, ms := whole.Stats(), merged.Stats()
		for j, nf := range schema.WeeklyNumerics {
			if PolicyOf(nf.Name) != Sum {
				continue
			}
			require.Equal(t, *ws[j], *ms[j], "field %s trial %d", nf.Name, trial)
		}
		require.Equal(t, whole.GamesPlayed, merged.GamesPlayed)
	}
}

func TestRecordStatAccessor(t *testing.T) {
	rec := Record{PassingYards: 12, PuntsBlocked: 1}
	assert.Equal(t, 12.0, rec.Stat("passing_yards"))
	assert.Equal(t, 1.0, rec.Stat("punts_blocked"))
	assert.Equal(t, 0.0, rec.Stat("nope"))
	assert.Len(t, rec.Stats(), len(schema.WeeklyNumerics))
}
