// Command nfl-datastore-lambda runs a cache build inside AWS Lambda and
// ships the result to S3, Athena and DynamoDB.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/tyler180/nfl-datastore/internal/builder"
	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/config"
	"github.com/tyler180/nfl-datastore/internal/deploy"
	"github.com/tyler180/nfl-datastore/internal/nflverse"
	"github.com/tyler180/nfl-datastore/internal/pfr"
	"github.com/tyler180/nfl-datastore/internal/resolver"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

// Lambda only allows writes under /tmp.
const lambdaCacheDir = "/tmp/nfl-datastore"

type Event struct {
	Seasons     []int `json:"seasons"`
	Force       bool  `json:"force"`
	SkipBio     bool  `json:"skip_bio"`
	SkipImpacts bool  `json:"skip_impacts"`
	SkipSnaps   bool  `json:"skip_snaps"`
	Publish     bool  `json:"publish"`
	Athena      bool  `json:"athena"`
	ExportDDB   bool  `json:"export_ddb"`
}

type Response struct {
	OK      bool                  `json:"ok"`
	Build   *builder.Result       `json:"build"`
	Errors  []string              `json:"errors,omitempty"`
	Publish *deploy.PublishReport `json:"publish,omitempty"`
	DDBRows int                   `json:"ddb_rows,omitempty"`
}

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

func handler(ctx context.Context, e Event) (*Response, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	if os.Getenv("CACHE_DIR") == "" {
		cfg.CacheDir = lambdaCacheDir
	}
	seasons := e.Seasons
	if len(seasons) == 0 {
		seasons = cfg.Seasons()
	}
	if _, err := resolver.ValidateSeasons(seasons, resolver.MetricBasic); err != nil {
		return nil, err
	}

	stores := cache.Open(cfg.CacheDir, logger)
	up := nflverse.NewClient(append(cfg.NflverseOptions(), nflverse.WithLogger(logger))...)
	dir := teams.NewDirectory(teams.DefaultRecords(), logger)
	if f, err := up.LoadTeams(ctx); err != nil {
		logger.Warn("teams feed unavailable", "err", err)
	} else if recs := teams.LoadRecords(f); len(recs) > 0 {
		dir.Refresh(recs)
	}
	scraper := pfr.NewClient(append(cfg.PFROptions(), pfr.WithLogger(logger))...)
	b := builder.New(up, scraper, stores, dir, builder.WithLogger(logger))

	start := time.Now()
	res, err := b.BuildAll(ctx, builder.Options{
		Seasons:           seasons,
		Force:             e.Force,
		SkipBio:           e.SkipBio,
		SkipImpacts:       e.SkipImpacts,
		SkipSnaps:         e.SkipSnaps,
		BioBatch:          cfg.BioBatch,
		IncludePostseason: cfg.IncludePostseason,
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	logger.Info("build finished", "duration", time.Since(start).Round(time.Second), "summary", res.Summary())
	out := &Response{OK: len(res.Errors) == 0, Build: res, Errors: res.ErrorStrings()}

	if !e.Publish && !e.ExportDDB {
		return out, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return out, err
	}
	d := deploy.New(cfg, stores, deploy.NewClients(awsCfg), logger)
	if e.Publish {
		out.Publish, err = d.Publish(ctx, deploy.PublishOptions{Athena: e.Athena})
		if err != nil {
			return out, fmt.Errorf("publish: %w", err)
		}
	}
	if e.ExportDDB {
		out.DDBRows, err = d.ExportSummaries(ctx, seasons)
		if err != nil {
			return out, fmt.Errorf("export ddb: %w", err)
		}
	}
	return out, nil
}

func main() {
	lambda.Start(handler)
}
