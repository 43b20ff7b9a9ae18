package deploy

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/config"
	"github.com/tyler180/nfl-datastore/internal/season"
)

type fakeS3 struct{ keys []string }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if _, err := io.Copy(io.Discard, in.Body); err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

type fakeDDB struct{ written int }

func (f *fakeDDB) BatchWriteItem(ctx context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	for _, reqs := range in.RequestItems {
		f.written += len(reqs)
	}
	return &ddb.BatchWriteItemOutput{}, nil
}

func (f *fakeDDB) Query(ctx context.Context, in *ddb.QueryInput, _ ...func(*ddb.Options)) (*ddb.QueryOutput, error) {
	return &ddb.QueryOutput{}, nil
}

func row(id string, yr int32, team string) cache.SummaryRecord {
	return cache.SummaryRecord{Record: season.Record{PlayerID: id, PlayerName: id, Season: yr, Team: team}}
}

func setup(t *testing.T) (*config.Config, *cache.Stores) {
	t.Helper()
	stores := cache.Open(t.TempDir(), nil)
	require.NoError(t, stores.Summary.Write(context.Background(), []cache.SummaryRecord{
		row("00-1", 2023, "KC"), row("00-1", 2024, "KC"), row("00-2", 2024, "BUF"),
	}))
	cfg := &config.Config{S3Bucket: "bkt", S3Prefix: "nfl", DDBSummaryTable: "summ", AthenaDB: "nfl"}
	return cfg, stores
}

func TestPublish_UploadsBuiltArtifacts(t *testing.T) {
	cfg, stores := setup(t)
	fs := &fakeS3{}
	d := New(cfg, stores, Clients{S3: fs}, nil)

	rep, err := d.Publish(context.Background(), PublishOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"nfl/player_summary/" + cache.SummaryFile}, fs.keys)
	assert.Len(t, rep.Skipped, 4)
	assert.Empty(t, rep.Tables)
}

func TestPublish_RequiresBucket(t *testing.T) {
	cfg, stores := setup(t)
	cfg.S3Bucket = ""
	_, err := New(cfg, stores, Clients{S3: &fakeS3{}}, nil).Publish(context.Background(), PublishOptions{Athena: true})
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestExportSummaries_SeasonFilter(t *testing.T) {
	cfg, stores := setup(t)
	fd := &fakeDDB{}
	d := New(cfg, stores, Clients{DDB: fd}, nil)

	n, err := d.ExportSummaries(context.Background(), []int{2024})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, fd.written)

	cfg.DDBSummaryTable = ""
	_, err = d.ExportSummaries(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestTopImpact_RejectsUnknownColumn(t *testing.T) {
	cfg, stores := setup(t)
	_, err := New(cfg, stores, Clients{}, nil).TopImpact(context.Background(), 2024, "player_name", 5)
	assert.Error(t, err)
}
