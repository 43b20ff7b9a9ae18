package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tyler180/nfl-datastore/internal/builder"
	"github.com/tyler180/nfl-datastore/internal/resolver"
)

func buildCmd(env *appEnv) *cobra.Command {
	var opts builder.Options
	var seasons []int
	var postseason bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build or refresh the season, impacts, bio and summary caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				cfg, err := env.config()
				if err != nil {
					return err
				}
				if len(seasons) == 0 {
					seasons = cfg.Seasons()
				}
				if _, err := resolver.ValidateSeasons(seasons, resolver.MetricBasic); err != nil {
					return err
				}
				opts.Seasons = seasons
				if !cmd.Flags().Changed("bio-batch") {
					opts.BioBatch = cfg.BioBatch
				}
				opts.IncludePostseason = postseason || cfg.IncludePostseason

				b, err := env.builder(ctx)
				if err != nil {
					return err
				}
				start := time.Now()
				res, err := b.BuildAll(ctx, opts)
				if err != nil {
					return fmt.Errorf("build failed: %w", err)
				}
				logger.Info("build finished", "duration", time.Since(start).Round(time.Second), "summary", res.Summary())
				for _, e := range res.Errors {
					logger.Error("build error", "table", e.Table, "key", e.Key, "error", e.Err)
				}
				return printJSON(struct {
					*builder.Result
					Errors []string `json:"errors,omitempty"`
				}{res, res.ErrorStrings()})
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Force, "refresh", false, "Rebuild artifacts even when cached")
	f.IntSliceVar(&seasons, "season", nil, "Season to build (repeatable; default SEASON_START..SEASON_END)")
	f.BoolVar(&opts.SkipBio, "skip-bio", false, "Skip PFR snap and bio enrichment")
	f.BoolVar(&opts.SkipImpacts, "skip-impacts", false, "Skip play-by-play impacts")
	f.BoolVar(&opts.SkipSnaps, "skip-snaps", false, "Skip PFR snap counts")
	f.IntVar(&opts.BioBatch, "bio-batch", builder.DefaultBioBatch, "Max bios fetched per run")
	f.BoolVar(&postseason, "include-postseason", false, "Aggregate post-season weeks too")
	return cmd
}

func statusCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show artifact existence, row counts and the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				stores, err := env.stores()
				if err != nil {
					return err
				}
				// Status never touches upstream, so no clients are wired.
				rep, err := builder.New(nil, nil, stores, nil, builder.WithLogger(logger)).Status(ctx)
				if err != nil {
					return err
				}
				return printJSON(rep)
			})
		},
	}
}
