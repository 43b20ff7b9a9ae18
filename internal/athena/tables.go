package athena

import (
	"context"
	"fmt"
	"strings"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/tyler180/nfl-datastore/internal/cache"
	"github.com/tyler180/nfl-datastore/internal/impact"
	"github.com/tyler180/nfl-datastore/internal/season"
)

// Column is one external table column.
type Column struct {
	Name string
	Type string
}

// Table is an external table over one published artifact directory.
type Table struct {
	Name     string
	Columns  []Column
	Location string // s3://bucket/prefix/table/
}

// ColumnsOf derives Athena columns from the parquet schema of T.
func ColumnsOf[T any]() []Column {
	var out []Column
	for _, f := range parquet.SchemaOf(new(T)).Fields() {
		out = append(out, Column{Name: f.Name(), Type: athenaType(f)})
	}
	return out
}

func athenaType(f parquet.Field) string {
	switch f.Type().Kind() {
	case parquet.Boolean:
		return "boolean"
	case parquet.Int32:
		return "int"
	case parquet.Int64:
		return "bigint"
	case parquet.Float:
		return "float"
	case parquet.Double:
		return "double"
	default:
		return "string"
	}
}

// Tables lists the four artifact tables. location maps a table name to its
// s3:// directory.
func Tables(location func(table string) string) []Table {
	return []Table{
		{Name: "player_season", Columns: ColumnsOf[season.Record](), Location: location("player_season")},
		{Name: "player_impacts", Columns: ColumnsOf[impact.Record](), Location: location("player_impacts")},
		{Name: "player_summary", Columns: ColumnsOf[cache.SummaryRecord](), Location: location("player_summary")},
		{Name: "player_bio", Columns: ColumnsOf[cache.BioRecord](), Location: location("player_bio")},
	}
}

// BuildDrop returns a DROP TABLE IF EXISTS for table. Dropping an external
// table leaves its data in S3.
func BuildDrop(db, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s.%s", db, table)
}

// BuildCreateExternal returns the DDL registering t.
func BuildCreateExternal(db string, t Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = fmt.Sprintf("  `%s` %s", c.Name, c.Type)
	}
	return fmt.Sprintf("CREATE EXTERNAL TABLE IF NOT EXISTS %s.%s (\n%s\n)\nSTORED AS PARQUET\nLOCATION '%s'\nTBLPROPERTIES ('parquet.compression'='ZSTD')",
		db, t.Name, strings.Join(cols, ",\n"), t.Location)
}

// Some light sanity queries to log after registration.
func BuildCount(db, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS c FROM %s.%s", db, table)
}

func BuildPerTeamCounts(db string, season int) string {
	return fmt.Sprintf(`
SELECT team, COUNT(*) AS players
FROM %s.player_summary
WHERE season=%d
GROUP BY team
ORDER BY team`, db, season)
}

// BuildTopImpact lists the highest EPA players of a season for one impact
// column, e.g. qb_epa or def_epa.
func BuildTopImpact(db string, season int, column string, limit int) (string, error) {
	ok := false
	for _, c := range ColumnsOf[impact.Record]() {
		if c.Name == column && c.Type == "double" {
			ok = true
		}
	}
	if !ok {
		return "", fmt.Errorf("unknown impact column %q", column)
	}
	return fmt.Sprintf(`
SELECT player_name, team, position, %[3]s
FROM %[1]s.player_summary
WHERE season=%[2]d
ORDER BY %[3]s DESC
LIMIT %[4]d`, db, season, column, limit), nil
}

// Registered reports one table after Register.
type Registered struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// Register drops and recreates every table, then counts its rows. A failed
// drop is logged; a failed create stops the run.
func (r *Runner) Register(ctx context.Context, tables []Table) ([]Registered, error) {
	var out []Registered
	for _, t := range tables {
		if _, err := r.ExecAndWait(ctx, BuildDrop(r.Database, t.Name)); err != nil {
			r.logger().Warn("drop table failed", "table", t.Name, "err", err)
		}
		if _, err := r.ExecAndWait(ctx, BuildCreateExternal(r.Database, t)); err != nil {
			return out, fmt.Errorf("create %s: %w", t.Name, err)
		}
		n, err := r.SingleInt(ctx, BuildCount(r.Database, t.Name))
		if err != nil {
			return out, fmt.Errorf("count %s: %w", t.Name, err)
		}
		r.logger().Info("registered table", "table", t.Name, "rows", n)
		out = append(out, Registered{Table: t.Name, Rows: n})
	}
	return out, nil
}
