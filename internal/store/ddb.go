// Package store mirrors the summary artifact into a DynamoDB table keyed
// for per-team season lookups.
//
// Table layout: PK SeasonTeam (S, "2024#KC"), SK PlayerID (S, gsis id).
// Every summary column is stored under its parquet/json name.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/nfl-datastore/internal/cache"
)

const (
	AttrSeasonTeam = "SeasonTeam"
	AttrPlayerID   = "PlayerID"
	AttrUpdatedAt  = "UpdatedAt"

	maxBatch = 25
)

type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

func jsonTags(o *attributevalue.EncoderOptions) { o.TagKey = "json" }

func jsonTagsDecode(o *attributevalue.DecoderOptions) { o.TagKey = "json" }

// SeasonTeam builds the partition key value.
func SeasonTeam(season int, team string) string {
	return strconv.Itoa(season) + "#" + team
}

// Item converts one summary row into a DynamoDB item.
func Item(r cache.SummaryRecord, now time.Time) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMapWithOptions(r, jsonTags)
	if err != nil {
		return nil, err
	}
	item[AttrSeasonTeam] = &types.AttributeValueMemberS{Value: SeasonTeam(int(r.Season), r.Team)}
	item[AttrPlayerID] = &types.AttributeValueMemberS{Value: r.PlayerID}
	item[AttrUpdatedAt] = &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)}
	return item, nil
}

// PutSummaryRows upserts rows in batches of 25, retrying unprocessed items.
// Rows without a player id are skipped; a row with an empty team is stored
// under "<season>#". Duplicate keys within one batch are collapsed, last
// row wins. It returns the number of items written.
func PutSummaryRows(ctx context.Context, ddb DynamoDBAPI, table string, rows []cache.SummaryRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	now := time.Now()
	written := 0

	for i := 0; i < len(rows); i += maxBatch {
		end := i + maxBatch
		if end > len(rows) {
			end = len(rows)
		}

		reqs := make([]types.WriteRequest, 0, end-i)
		pos := map[string]int{}
		for _, r := range rows[i:end] {
			if r.PlayerID == "" {
				continue
			}
			item, err := Item(r, now)
			if err != nil {
				return written, fmt.Errorf("marshal %s/%d: %w", r.PlayerID, r.Season, err)
			}
			req := types.WriteRequest{PutRequest: &types.PutRequest{Item: item}}
			k := SeasonTeam(int(r.Season), r.Team) + "|" + r.PlayerID
			if j, dup := pos[k]; dup {
				reqs[j] = req
				continue
			}
			pos[k] = len(reqs)
			reqs = append(reqs, req)
		}
		if len(reqs) == 0 {
			continue
		}
		if err := batchWriteWithRetry(ctx, ddb, table, reqs); err != nil {
			return written, fmt.Errorf("batch write summary rows: %w", err)
		}
		written += len(reqs)
	}
	return written, nil
}

// retryDelay is the first backoff step; tests shrink it.
var retryDelay = 120 * time.Millisecond

func batchWriteWithRetry(ctx context.Context, ddb DynamoDBAPI, table string, reqs []types.WriteRequest) error {
	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{table: reqs},
	}
	const maxAttempts = 6
	backoff := retryDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := ddb.BatchWriteItem(ctx, input)
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		input.RequestItems = out.UnprocessedItems
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff += retryDelay
		}
	}
	return fmt.Errorf("unprocessed items remained after retries for table %s", table)
}
