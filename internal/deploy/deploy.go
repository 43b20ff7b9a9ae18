// Package deploy ships a built cache to AWS: parquet artifacts to S3, their
// Athena tables, and the summary rows to DynamoDB.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tyler180/nfl-datastore/internal/athena"
	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/config"
	"github.com/tyler180/nfl-datastore/internal/publish"
	"github.com/tyler180/nfl-datastore/internal/store"
)

var (
	ErrNoBucket = errors.New("deploy: S3_BUCKET not set")
	ErrNoTable  = errors.New("deploy: DDB_SUMMARY_TABLE not set")
)

// Clients holds the AWS APIs used by a deploy. Nil fields are created from
// the shared aws.Config on first use.
type Clients struct {
	S3     publish.S3API
	Athena athena.API
	DDB    store.DynamoDBAPI
}

// NewClients builds the real service clients.
func NewClients(awsCfg aws.Config) Clients {
	return Clients{
		S3:     s3.NewFromConfig(awsCfg),
		Athena: awsathena.NewFromConfig(awsCfg),
		DDB:    dynamodb.NewFromConfig(awsCfg),
	}
}

type Deployer struct {
	cfg     *config.Config
	stores  *cache.Stores
	clients Clients
	logger  *slog.Logger
}

func New(cfg *config.Config, stores *cache.Stores, clients Clients, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{cfg: cfg, stores: stores, clients: clients, logger: logger}
}

// PublishOptions controls Publish.
type PublishOptions struct {
	Archive bool
	Athena  bool
}

// PublishReport is the outcome of Publish.
type PublishReport struct {
	*publish.Result
	Tables []athena.Registered `json:"tables,omitempty"`
}

// Publish uploads the artifacts and optionally registers their Athena
// tables. Athena is skipped when no upload landed.
func (d *Deployer) Publish(ctx context.Context, opts PublishOptions) (*PublishReport, error) {
	if d.cfg.S3Bucket == "" {
		return nil, ErrNoBucket
	}
	popts := []publish.Option{publish.WithLogger(d.logger)}
	if opts.Archive {
		popts = append(popts, publish.WithArchive())
	}
	p, err := publish.New(d.clients.S3, d.cfg.S3Bucket, d.cfg.S3Prefix, popts...)
	if err != nil {
		return nil, err
	}
	res, err := p.Publish(ctx, publish.Artifacts(d.stores.Paths))
	rep := &PublishReport{Result: res}
	if err != nil {
		return rep, err
	}
	if !opts.Athena {
		return rep, nil
	}
	if len(res.Uploaded) == 0 {
		d.logger.Warn("nothing uploaded; skipping athena registration")
		return rep, nil
	}
	rep.Tables, err = d.runner().Register(ctx, athena.Tables(res.Location))
	if err != nil {
		return rep, fmt.Errorf("athena: %w", err)
	}
	return rep, nil
}

func (d *Deployer) runner() *athena.Runner {
	return &athena.Runner{
		Client:    d.clients.Athena,
		Workgroup: d.cfg.AthenaWorkgroup,
		Database:  d.cfg.AthenaDB,
		OutputS3:  d.cfg.AthenaOutput,
		Logger:    d.logger,
	}
}

// TeamCounts returns team and player count rows for one season from the
// registered summary table.
func (d *Deployer) TeamCounts(ctx context.Context, season int) ([][]string, error) {
	return d.runner().Rows(ctx, athena.BuildPerTeamCounts(d.cfg.AthenaDB, season))
}

// TopImpact returns the top players by an impact column from Athena.
func (d *Deployer) TopImpact(ctx context.Context, season int, column string, limit int) ([][]string, error) {
	sql, err := athena.BuildTopImpact(d.cfg.AthenaDB, season, column, limit)
	if err != nil {
		return nil, err
	}
	return d.runner().Rows(ctx, sql)
}

// ExportSummaries writes the cached summary rows for seasons (all when
// empty) into the DynamoDB summary table.
func (d *Deployer) ExportSummaries(ctx context.Context, seasons []int) (int, error) {
	if d.cfg.DDBSummaryTable == "" {
		return 0, ErrNoTable
	}
	rows, err := d.stores.Summaries(ctx, cache.Criteria{Seasons: seasons})
	if err != nil {
		return 0, err
	}
	n, err := store.PutSummaryRows(ctx, d.clients.DDB, d.cfg.DDBSummaryTable, rows)
	if err != nil {
		return n, err
	}
	d.logger.Info("exported summaries", "table", d.cfg.DDBSummaryTable, "rows", n)
	return n, nil
}

// SeasonTeam reads one team's season back from DynamoDB.
func (d *Deployer) SeasonTeam(ctx context.Context, season int, team string) ([]cache.SummaryRecord, error) {
	if d.cfg.DDBSummaryTable == "" {
		return nil, ErrNoTable
	}
	return store.QuerySeasonTeam(ctx, d.clients.DDB, d.cfg.DDBSummaryTable, season, team)
}
