package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/resolver"
)

func (e *appEnv) resolver(ctx context.Context) (*resolver.Resolver, error) {
	up, err := e.upstream()
	if err != nil {
		return nil, err
	}
	players, err := up.LoadPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	opts := []resolver.Option{resolver.WithLogger(logger)}
	if ids, err := up.LoadPlayerIDs(ctx); err != nil {
		logger.Warn("fantasy id feed unavailable; resolving from players only", "err", err)
	} else {
		opts = append(opts, resolver.WithIDs(ids))
	}
	return resolver.New(players, e.teams(ctx, up), opts...)
}

func resolveCmd(env *appEnv) *cobra.Command {
	var q resolver.Query
	var withStats bool
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a player query to one player identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				r, err := env.resolver(ctx)
				if err != nil {
					return err
				}
				p, err := r.Resolve(q)
				if err != nil {
					return err
				}
				if !withStats || p.GsisID == "" {
					return printJSON(p)
				}
				stores, err := env.stores()
				if err != nil {
					return err
				}
				view, err := stores.PlayerSummary(ctx, p.GsisID)
				if errors.Is(err, cache.ErrNotBuilt) {
					logger.Warn("summary cache not built; run build first")
					return printJSON(p)
				}
				if err != nil {
					return err
				}
				return printJSON(struct {
					Profile resolver.Profile  `json:"profile"`
					Cached  *cache.PlayerView `json:"cached"`
				}{p, view})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.Name, "name", "", "Player name")
	f.StringVar(&q.Team, "team", "", "Current team (any spelling)")
	f.StringVar(&q.Position, "position", "", "Position or position group")
	f.IntVar(&q.DraftYear, "draft-year", 0, "Draft year")
	f.StringVar(&q.DraftTeam, "draft-team", "", "Drafting team")
	f.BoolVar(&withStats, "stats", false, "Include cached summary rows and bio")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func searchCmd(env *appEnv) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "List players whose name contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				r, err := env.resolver(ctx)
				if err != nil {
					return err
				}
				type result struct {
					profiles []resolver.Profile
					err      error
				}
				done := make(chan result, 1)
				s := resolver.NewSearcher(r)
				s.Search(ctx, args[0], limit, func(p []resolver.Profile, err error) {
					done <- result{p, err}
				})
				res := <-done
				if res.err != nil {
					return res.err
				}
				return printJSON(res.profiles)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", resolver.DefaultSearchLimit, "Max results")
	return cmd
}

func queryCmd(env *appEnv) *cobra.Command {
	var c cache.Criteria
	var limit int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter the summary cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				stores, err := env.stores()
				if err != nil {
					return err
				}
				rows, err := stores.Summaries(ctx, c)
				if err != nil {
					return err
				}
				logger.Info("query matched", "rows", len(rows))
				if limit > 0 && len(rows) > limit {
					rows = rows[:limit]
				}
				return printJSON(rows)
			})
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&c.PlayerIDs, "player", nil, "gsis player id (repeatable)")
	f.IntSliceVar(&c.Seasons, "season", nil, "Season (repeatable)")
	f.StringSliceVar(&c.Teams, "team", nil, "Team abbreviation (repeatable)")
	f.StringSliceVar(&c.Positions, "position", nil, "Position (repeatable)")
	f.StringSliceVar(&c.PositionGroups, "position-group", nil, "Position group (repeatable)")
	f.StringVar(&c.NameContains, "name", "", "Name substring")
	f.IntVar(&c.MinGames, "min-games", 0, "Minimum games played")
	f.IntVar(&limit, "limit", 0, "Max rows printed (0 = all)")
	return cmd
}
