// Command nfl-datastore builds and queries the local NFL stats cache.
//
// Usage:
//
//	nfl-datastore build --season 2023 --season 2024 --bio-batch 50
//	nfl-datastore build --refresh --skip-snaps
//	nfl-datastore status
//	nfl-datastore resolve --name "Josh Allen" --position QB
//	nfl-datastore search allen
//	nfl-datastore query --season 2024 --team KC --position WR
//	nfl-datastore publish --athena
//	nfl-datastore export-ddb --season 2024
//	nfl-datastore ddb-team --season 2024 --team KC
//	nfl-datastore top --season 2024 --column def_epa
//	nfl-datastore pfr-player AlleJo02 --table passing
//	nfl-datastore nextgen --type receiving --season 2023
//	nfl-datastore teams "Jacksonville Jaguars" LVR
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tyler180/nfl-datastore/internal/builder"
	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/config"
	"github.com/tyler180/nfl-datastore/internal/nflverse"
	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

var (
	level  = new(slog.LevelVar)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")
	slog.SetDefault(logger)

	var debug bool
	var cacheDir string
	root := &cobra.Command{
		Use:           "nfl-datastore",
		Short:         "NFL season stats aggregation and cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug || os.Getenv("DEBUG") == "1" {
				level.Set(slog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Debug logging")
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (overrides CACHE_DIR)")

	env := &appEnv{cacheDir: &cacheDir}
	root.AddCommand(buildCmd(env))
	root.AddCommand(statusCmd(env))
	root.AddCommand(resolveCmd(env))
	root.AddCommand(searchCmd(env))
	root.AddCommand(queryCmd(env))
	root.AddCommand(publishCmd(env))
	root.AddCommand(exportDDBCmd(env))
	root.AddCommand(teamCmd(env))
	root.AddCommand(topCmd(env))
	root.AddCommand(pfrPlayerCmd(env))
	root.AddCommand(nextGenCmd(env))
	root.AddCommand(teamsCmd(env))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

// appEnv lazily wires config and collaborators for one command run.
type appEnv struct {
	cacheDir *string
	cfg      *config.Config
}

func (e *appEnv) config() (*config.Config, error) {
	if e.cfg != nil {
		return e.cfg, nil
	}
	cfg, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if *e.cacheDir != "" {
		cfg.CacheDir = *e.cacheDir
	}
	if cfg.Debug {
		level.Set(slog.LevelDebug)
	}
	e.cfg = cfg
	return cfg, nil
}

func (e *appEnv) stores() (*cache.Stores, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return cache.Open(cfg.CacheDir, logger), nil
}

func (e *appEnv) upstream() (*nflverse.Client, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return nflverse.NewClient(append(cfg.NflverseOptions(), nflverse.WithLogger(logger))...), nil
}

// teams builds the team directory, refreshed from the nflverse teams feed
// when it is reachable.
func (e *appEnv) teams(ctx context.Context, up *nflverse.Client) *teams.Directory {
	dir := teams.NewDirectory(teams.DefaultRecords(), logger)
	f, err := up.LoadTeams(ctx)
	if err != nil {
		logger.Warn("teams feed unavailable; using built-in snapshot", "err", err)
		return dir
	}
	if recs := teams.LoadRecords(f); len(recs) > 0 {
		dir.Refresh(recs)
	}
	return dir
}

func (e *appEnv) builder(ctx context.Context) (*builder.Builder, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	stores, err := e.stores()
	if err != nil {
		return nil, err
	}
	up, err := e.upstream()
	if err != nil {
		return nil, err
	}
	scraper := pfr.NewClient(append(cfg.PFROptions(), pfr.WithLogger(logger))...)
	return builder.New(up, scraper, stores, e.teams(ctx, up), builder.WithLogger(logger)), nil
}

func run(fn func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	return fn(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
