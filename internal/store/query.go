package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/nfl-datastore/internal/cache"
)

// QuerySeasonTeam reads every mirrored summary row of one team-season,
// following pagination. Rows come back sorted by player name.
func QuerySeasonTeam(ctx context.Context, ddb DynamoDBAPI, table string, season int, team string) ([]cache.SummaryRecord, error) {
	var out []cache.SummaryRecord
	var lastKey map[string]types.AttributeValue
	for {
		page, err := ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(table),
			KeyConditionExpression:    aws.String("#pk = :v"),
			ExpressionAttributeNames:  map[string]string{"#pk": AttrSeasonTeam},
			ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: SeasonTeam(season, team)}},
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, err
		}
		var rows []cache.SummaryRecord
		if err := attributevalue.UnmarshalListOfMapsWithOptions(page.Items, &rows, jsonTagsDecode); err != nil {
			return nil, fmt.Errorf("decode %s page: %w", SeasonTeam(season, team), err)
		}
		for i, it := range page.Items {
			// Older items may predate the player_id column.
			if rows[i].PlayerID == "" {
				rows[i].PlayerID = getStr(it, AttrPlayerID)
			}
		}
		out = append(out, rows...)

		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		lastKey = page.LastEvaluatedKey
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayerName < out[j].PlayerName })
	return out, nil
}

func getStr(m map[string]types.AttributeValue, key string) string {
	if v, ok := m[key]; ok {
		if s, ok2 := v.(*types.AttributeValueMemberS); ok2 {
			return s.Value
		}
	}
	return ""
}
