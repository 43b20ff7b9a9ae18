package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/resolver"
	"github.com/tyler180/nfl-datastore/internal/schema"
)

func pfrPlayerCmd(env *appEnv) *cobra.Command {
	var tables []string
	cmd := &cobra.Command{
		Use:   "pfr-player <pfr_id>",
		Short: "Fetch the flattened tables of one PFR player page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				cfg, err := env.config()
				if err != nil {
					return err
				}
				c := pfr.NewClient(append(cfg.PFROptions(), pfr.WithLogger(logger))...)
				got, err := c.FetchPlayerTables(ctx, args[0], tables...)
				if err != nil {
					return err
				}
				out := make(map[string]*schema.Frame, len(got))
				for id, t := range got {
					out[id] = t.Frame()
				}
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringSliceVar(&tables, "table", nil, "Table id (repeatable; default every table)")
	return cmd
}

func nextGenCmd(env *appEnv) *cobra.Command {
	var statType string
	var seasons []int
	cmd := &cobra.Command{
		Use:   "nextgen",
		Short: "Download NextGen stats for seasons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				// Reject pre-2016 seasons before any request is made.
				if _, err := resolver.ValidateSeasons(seasons, resolver.MetricNextGen); err != nil {
					return err
				}
				up, err := env.upstream()
				if err != nil {
					return err
				}
				f, err := up.LoadNextGen(ctx, statType, seasons)
				if err != nil {
					return err
				}
				logger.Info("nextgen loaded", "type", statType, "rows", f.Len())
				return printJSON(f)
			})
		},
	}
	cmd.Flags().StringVar(&statType, "type", "passing", "passing, rushing or receiving")
	cmd.Flags().IntSliceVar(&seasons, "season", nil, "Season (repeatable)")
	_ = cmd.MarkFlagRequired("season")
	return cmd
}

func teamsCmd(env *appEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "teams [name...]",
		Short: "List team abbreviations with PFR slugs, or normalize names",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				up, err := env.upstream()
				if err != nil {
					return err
				}
				dir := env.teams(ctx, up)
				out := map[string]string{}
				if len(args) == 0 {
					for _, abbr := range dir.Abbrs() {
						slug, _ := dir.Slug(abbr)
						out[abbr] = slug
					}
					return printJSON(out)
				}
				for _, name := range args {
					abbr, ok := dir.Normalize(name)
					if !ok {
						logger.Warn("unknown team", "name", name)
					}
					out[name] = abbr
				}
				return printJSON(out)
			})
		},
	}
}
