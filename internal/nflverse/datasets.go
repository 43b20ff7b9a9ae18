package nflverse

import (
	"context"
	"fmt"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Dataset names.
const (
	Players     = "players"
	WeeklyStats = "weekly_stats"
	Rosters     = "rosters"
	PlayByPlay  = "pbp"
	Teams       = "teams"
	SnapCounts  = "snap_counts"
	NextGen     = "nextgen"
	PlayerIDs   = "ff_playerids"
)

// DefaultPlayerIDsURL is the DynastyProcess fantasy id crosswalk.
const DefaultPlayerIDsURL = "https://github.com/dynastyprocess/data/raw/master/files/db_playerids.csv"

func (c *Client) fixed(name, path string) Shape {
	return Shape{Name: name, Resolve: func(context.Context, int) (string, error) { return c.asset(path), nil }}
}

func (c *Client) perSeason(name, pattern string) Shape {
	return Shape{Name: name, PerSeason: true, Resolve: func(_ context.Context, season int) (string, error) {
		return c.asset(fmt.Sprintf(pattern, season)), nil
	}}
}

// Loader returns the negotiated loader for a dataset. NextGen loaders are
// keyed by stat type ("passing", "rushing", "receiving").
func (c *Client) Loader(dataset string) *Loader {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.loaders[dataset]; ok {
		return l
	}
	var l *Loader
	switch {
	case dataset == Players:
		l = newLoader(c, dataset,
			c.fixed("players-csv", "players/players.csv"),
			c.releaseShape("players", "players", false),
		)
	case dataset == WeeklyStats:
		l = newLoader(c, dataset,
			c.perSeason("stats_player-week", "stats_player/stats_player_week_%d.csv"),
			c.perSeason("player_stats-season", "player_stats/player_stats_%d.csv"),
			c.fixed("player_stats-combined", "player_stats/player_stats.csv"),
			c.releaseShape("player_stats", "player_stats", true),
		)
	case dataset == Rosters:
		l = newLoader(c, dataset,
			c.perSeason("weekly_rosters", "weekly_rosters/roster_weekly_%d.csv"),
			c.perSeason("rosters", "rosters/roster_%d.csv"),
			c.releaseShape("weekly_rosters", "roster", true),
		)
	case dataset == PlayByPlay:
		l = newLoader(c, dataset,
			c.perSeason("pbp-csv-gz", "pbp/play_by_play_%d.csv.gz"),
			c.perSeason("pbp-csv", "pbp/play_by_play_%d.csv"),
			c.releaseShape("pbp", "play_by_play", true),
		)
	case dataset == Teams:
		teamsURL := c.teamsURL
		l = newLoader(c, dataset,
			Shape{Name: "teams_colors_logos", Resolve: func(context.Context, int) (string, error) { return teamsURL, nil }},
			c.fixed("teams-release", "teams/teams_colors_logos.csv"),
		)
	case dataset == PlayerIDs:
		l = newLoader(c, dataset,
			Shape{Name: "db_playerids", Resolve: func(context.Context, int) (string, error) { return DefaultPlayerIDsURL, nil }},
			c.fixed("ff_playerids-release", "misc/db_playerids.csv"),
		)
	case dataset == SnapCounts:
		l = newLoader(c, dataset,
			c.perSeason("snap_counts-season", "snap_counts/snap_counts_%d.csv"),
			c.fixed("snap_counts-combined", "snap_counts/snap_counts.csv"),
			c.releaseShape("snap_counts", "snap_counts", true),
		)
	case strings.HasPrefix(dataset, NextGen+":"):
		stat := strings.TrimPrefix(dataset, NextGen+":")
		l = newLoader(c, dataset,
			c.fixed("ngs-combined-gz", fmt.Sprintf("nextgen_stats/ngs_%s.csv.gz", stat)),
			c.perSeason("ngs-season-gz", "nextgen_stats/ngs_%d_"+stat+".csv.gz"),
			c.releaseShape("nextgen_stats", "ngs", true),
		)
	default:
		l = newLoader(c, dataset)
	}
	c.loaders[dataset] = l
	return l
}

// LoadPlayers returns the player directory (gsis_id, pfr_id, names, draft, status, ...).
func (c *Client) LoadPlayers(ctx context.Context) (*schema.Frame, error) {
	return c.Loader(Players).Load(ctx, nil)
}

// LoadPlayerIDs returns the fantasy id crosswalk (gsis_id, pfr_id, espn_id,
// ...), joined onto the player directory by the resolver.
func (c *Client) LoadPlayerIDs(ctx context.Context) (*schema.Frame, error) {
	return c.Loader(PlayerIDs).Load(ctx, nil)
}

// LoadWeeklyStats returns weekly player stats for seasons.
func (c *Client) LoadWeeklyStats(ctx context.Context, seasons []int) (*schema.Frame, error) {
	return c.Loader(WeeklyStats).Load(ctx, seasons)
}

// LoadRosters returns weekly rosters, used to bridge gsis and PFR ids.
func (c *Client) LoadRosters(ctx context.Context, seasons []int) (*schema.Frame, error) {
	return c.Loader(Rosters).Load(ctx, seasons)
}

// LoadPlayByPlay returns play-by-play rows for seasons.
func (c *Client) LoadPlayByPlay(ctx context.Context, seasons []int) (*schema.Frame, error) {
	return c.Loader(PlayByPlay).Load(ctx, seasons)
}

// LoadTeams returns the team reference table.
func (c *Client) LoadTeams(ctx context.Context) (*schema.Frame, error) {
	return c.Loader(Teams).Load(ctx, nil)
}

// LoadSnapCounts returns weekly snap counts keyed by pfr_player_id.
func (c *Client) LoadSnapCounts(ctx context.Context, seasons []int) (*schema.Frame, error) {
	return c.Loader(SnapCounts).Load(ctx, seasons)
}

// LoadNextGen returns NextGen stats of one type for seasons.
func (c *Client) LoadNextGen(ctx context.Context, statType string, seasons []int) (*schema.Frame, error) {
	return c.Loader(NextGen+":"+strings.ToLower(statType)).Load(ctx, seasons)
}
