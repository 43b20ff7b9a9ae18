package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/season"
)

// fake client implementing DynamoDBAPI
type fakeDDB struct {
	calls     int
	failFirst bool // first attempt echoes everything back as unprocessed
	batches   []int
	err       error

	pages [][]map[string]types.AttributeValue
	query []*ddb.QueryInput
}

func (f *fakeDDB) BatchWriteItem(ctx context.Context, in *ddb.BatchWriteItemInput, _ ...func(*ddb.Options)) (*ddb.BatchWriteItemOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failFirst {
		f.failFirst = false
		return &ddb.BatchWriteItemOutput{UnprocessedItems: in.RequestItems}, nil
	}
	for _, reqs := range in.RequestItems {
		f.batches = append(f.batches, len(reqs))
	}
	return &ddb.BatchWriteItemOutput{}, nil
}

func (f *fakeDDB) Query(ctx context.Context, in *ddb.QueryInput, _ ...func(*ddb.Options)) (*ddb.QueryOutput, error) {
	f.query = append(f.query, in)
	i := len(f.query) - 1
	out := &ddb.QueryOutput{Items: f.pages[i]}
	if i < len(f.pages)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"PlayerID": &types.AttributeValueMemberS{Value: fmt.Sprint(i)}}
	}
	return out, nil
}

func summary(id, name string, seasonYear int32, team string) cache.SummaryRecord {
	return cache.SummaryRecord{
		Record: season.Record{PlayerID: id, PlayerName: name, Season: seasonYear, Team: team, PassingYards: 4183},
		PfrID:  "MahoPa00",
		QBEPA:  0.4,
	}
}

func TestPutSummaryRows_BatchingAndRetry(t *testing.T) {
	retryDelay = time.Millisecond
	var rows []cache.SummaryRecord
	for i := 0; i < 30; i++ {
		rows = append(rows, summary(fmt.Sprintf("00-%04d", i), fmt.Sprintf("P%02d", i), 2024, "ATL"))
	}
	rows = append(rows, summary("", "no id", 2024, "ATL"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	fc := &fakeDDB{failFirst: true}
	n, err := PutSummaryRows(ctx, fc, "tbl", rows)
	if err != nil {
		t.Fatalf("PutSummaryRows error: %v", err)
	}
	if n != 30 {
		t.Fatalf("written = %d, want 30", n)
	}
	// First batch retried once: 2 + 1 + 1 calls.
	if fc.calls != 3 {
		t.Fatalf("expected 3 BatchWriteItem calls, got %d", fc.calls)
	}
	if len(fc.batches) != 2 || fc.batches[0] != 25 || fc.batches[1] != 5 {
		t.Fatalf("batches = %v, want [25 5]", fc.batches)
	}
}

func TestPutSummaryRows_CollapsesDuplicateKeys(t *testing.T) {
	fc := &fakeDDB{}
	rows := []cache.SummaryRecord{
		summary("00-1", "A", 2024, "KC"),
		summary("00-1", "A", 2024, "KC"),
		summary("00-1", "A", 2024, "LV"),
	}
	n, err := PutSummaryRows(context.Background(), fc, "tbl", rows)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || fc.batches[0] != 2 {
		t.Fatalf("written=%d batches=%v, want 2 items", n, fc.batches)
	}
}

func TestPutSummaryRows_Error(t *testing.T) {
	boom := errors.New("throttled")
	_, err := PutSummaryRows(context.Background(), &fakeDDB{err: boom}, "tbl", []cache.SummaryRecord{summary("00-1", "A", 2024, "KC")})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestItemKeysAndColumns(t *testing.T) {
	it, err := Item(summary("00-0033873", "Patrick Mahomes", 2024, "KC"), time.Unix(1700000000, 0))
	if err != nil {
		t.Fatal(err)
	}
	if got := getStr(it, AttrSeasonTeam); got != "2024#KC" {
		t.Errorf("SeasonTeam = %q", got)
	}
	if got := getStr(it, AttrPlayerID); got != "00-0033873" {
		t.Errorf("PlayerID = %q", got)
	}
	if got := getStr(it, "pfr_id"); got != "MahoPa00" {
		t.Errorf("pfr_id = %q", got)
	}
	n, ok := it["passing_yards"].(*types.AttributeValueMemberN)
	if !ok || n.Value != "4183" {
		t.Errorf("passing_yards = %#v", it["passing_yards"])
	}
	if _, ok := it[AttrUpdatedAt].(*types.AttributeValueMemberN); !ok {
		t.Errorf("UpdatedAt missing")
	}
}

func TestQuerySeasonTeam_Paginates(t *testing.T) {
	now := time.Now()
	mk := func(r cache.SummaryRecord) map[string]types.AttributeValue {
		it, err := Item(r, now)
		if err != nil {
			t.Fatal(err)
		}
		return it
	}
	fc := &fakeDDB{pages: [][]map[string]types.AttributeValue{
		{mk(summary("00-2", "Travis Kelce", 2024, "KC"))},
		{mk(summary("00-1", "Patrick Mahomes", 2024, "KC"))},
	}}

	rows, err := QuerySeasonTeam(context.Background(), fc, "tbl", 2024, "KC")
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.query) != 2 {
		t.Fatalf("queries = %d, want 2", len(fc.query))
	}
	if fc.query[1].ExclusiveStartKey == nil {
		t.Fatal("second page did not pass ExclusiveStartKey")
	}
	if len(rows) != 2 || rows[0].PlayerName != "Patrick Mahomes" || rows[1].PlayerID != "00-2" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].QBEPA != 0.4 || rows[0].PassingYards != 4183 || rows[0].Season != 2024 {
		t.Fatalf("decoded row = %+v", rows[0])
	}
}
