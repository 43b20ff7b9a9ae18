package main

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/tyler180/nfl-datastore/internal/deploy"
)

func (e *appEnv) deployer(ctx context.Context) (*deploy.Deployer, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	stores, err := e.stores()
	if err != nil {
		return nil, err
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return deploy.New(cfg, stores, deploy.NewClients(awsCfg), logger), nil
}

func publishCmd(env *appEnv) *cobra.Command {
	var opts deploy.PublishOptions
	var countSeason int
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload cache artifacts to S3 and optionally register Athena tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				d, err := env.deployer(ctx)
				if err != nil {
					return err
				}
				rep, err := d.Publish(ctx, opts)
				if err != nil {
					return err
				}
				if opts.Athena && countSeason > 0 {
					rows, err := d.TeamCounts(ctx, countSeason)
					if err != nil {
						logger.Warn("per-team count query failed", "err", err)
					}
					for _, r := range rows {
						logger.Info("team players", "season", countSeason, "row", r)
					}
				}
				return printJSON(rep)
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Athena, "athena", false, "Register Athena external tables after upload")
	f.BoolVar(&opts.Archive, "archive", false, "Also keep a timestamped copy under archive/")
	f.IntVar(&countSeason, "count-season", 0, "Log per-team player counts for this season after registration")
	return cmd
}

func exportDDBCmd(env *appEnv) *cobra.Command {
	var seasons []int
	cmd := &cobra.Command{
		Use:   "export-ddb",
		Short: "Write cached summary rows into the DynamoDB summary table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				d, err := env.deployer(ctx)
				if err != nil {
					return err
				}
				n, err := d.ExportSummaries(ctx, seasons)
				if err != nil {
					return err
				}
				return printJSON(map[string]int{"written": n})
			})
		},
	}
	cmd.Flags().IntSliceVar(&seasons, "season", nil, "Season to export (repeatable; default all)")
	return cmd
}

func teamCmd(env *appEnv) *cobra.Command {
	var season int
	var team string
	cmd := &cobra.Command{
		Use:   "ddb-team",
		Short: "Read one team season back from DynamoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				d, err := env.deployer(ctx)
				if err != nil {
					return err
				}
				rows, err := d.SeasonTeam(ctx, season, team)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season")
	cmd.Flags().StringVar(&team, "team", "", "Team abbreviation")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func topCmd(env *appEnv) *cobra.Command {
	var season, limit int
	var column string
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Query Athena for the top players by an impact column",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context) error {
				d, err := env.deployer(ctx)
				if err != nil {
					return err
				}
				rows, err := d.TopImpact(ctx, season, column, limit)
				if err != nil {
					return err
				}
				return printJSON(rows)
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&season, "season", 0, "Season")
	f.StringVar(&column, "column", "qb_epa", "Impact column, e.g. qb_epa, def_epa")
	f.IntVar(&limit, "limit", 20, "Rows")
	_ = cmd.MarkFlagRequired("season")
	return cmd
}
