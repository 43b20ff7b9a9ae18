package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	parquet "github.com/parquet-go/parquet-go"
)

// Scanner is a lazy, filtered read of a Store. Nothing is opened until
// Collect. Builder methods return a new Scanner.
type Scanner[T any] struct {
	store   *Store[T]
	seasons map[int]struct{}
	preds   []func(*T) bool
}

// ScanStats reports how much of the file a Collect touched.
type ScanStats struct {
	RowGroups int
	Skipped   int
	RowsRead  int
	RowsKept  int
}

// Scan starts a lazy read of the artifact.
func (s *Store[T]) Scan() *Scanner[T] { return &Scanner[T]{store: s} }

func (sc *Scanner[T]) clone() *Scanner[T] {
	out := &Scanner[T]{store: sc.store, preds: append([]func(*T) bool{}, sc.preds...)}
	if sc.seasons != nil {
		out.seasons = make(map[int]struct{}, len(sc.seasons))
		for k := range sc.seasons {
			out.seasons[k] = struct{}{}
		}
	}
	return out
}

// Seasons restricts the scan to the given seasons. Row groups whose season
// statistics exclude every requested season are not read. No arguments
// leaves the scan unrestricted.
func (sc *Scanner[T]) Seasons(seasons ...int) *Scanner[T] {
	out := sc.clone()
	if len(seasons) == 0 {
		return out
	}
	if out.seasons == nil {
		out.seasons = map[int]struct{}{}
	}
	for _, s := range seasons {
		out.seasons[s] = struct{}{}
	}
	return out
}

// Where adds a row predicate.
func (sc *Scanner[T]) Where(pred func(*T) bool) *Scanner[T] {
	out := sc.clone()
	out.preds = append(out.preds, pred)
	return out
}

func (sc *Scanner[T]) keep(v *T) bool {
	if len(sc.seasons) > 0 && sc.store.season != nil {
		if _, ok := sc.seasons[sc.store.season(v)]; !ok {
			return false
		}
	}
	for _, p := range sc.preds {
		if !p(v) {
			return false
		}
	}
	return true
}

// Collect runs the scan.
func (sc *Scanner[T]) Collect(ctx context.Context) ([]T, error) {
	out, _, err := sc.CollectStats(ctx)
	return out, err
}

// CollectStats runs the scan and reports row-group pruning.
func (sc *Scanner[T]) CollectStats(ctx context.Context) ([]T, ScanStats, error) {
	var stats ScanStats
	path := sc.store.path
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, stats, fmt.Errorf("%w: %s", ErrNotBuilt, path)
	}
	if err != nil {
		return nil, stats, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, stats, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, stats, fmt.Errorf("cache: open %s: %w", path, err)
	}

	seasonCol := -1
	if len(sc.seasons) > 0 && sc.store.season != nil {
		if leaf, ok := pf.Schema().Lookup("season"); ok {
			seasonCol = leaf.ColumnIndex
		}
	}

	sch := parquet.SchemaOf(new(T))
	meta := pf.Metadata()
	var out []T
	buf := make([]parquet.Row, 256)
	for i, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.RowGroups++
		if seasonCol >= 0 && i < len(meta.RowGroups) && seasonCol < len(meta.RowGroups[i].Columns) {
			s := meta.RowGroups[i].Columns[seasonCol].MetaData.Statistics
			if lo, hi, ok := int32Range(s.MinValue, s.MaxValue); ok && !sc.overlaps(lo, hi) {
				stats.Skipped++
				continue
			}
		}
		if err := sc.readGroup(rg, sch, buf, &out, &stats); err != nil {
			return nil, stats, fmt.Errorf("cache: scan %s: %w", path, err)
		}
	}
	return out, stats, nil
}

func (sc *Scanner[T]) readGroup(rg parquet.RowGroup, sch *parquet.Schema, buf []parquet.Row, out *[]T, stats *ScanStats) error {
	rows := rg.Rows()
	defer rows.Close()
	for {
		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			var v T
			if rerr := sch.Reconstruct(&v, row); rerr != nil {
				return rerr
			}
			stats.RowsRead++
			if sc.keep(&v) {
				*out = append(*out, v)
				stats.RowsKept++
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (sc *Scanner[T]) overlaps(lo, hi int32) bool {
	for s := range sc.seasons {
		if int32(s) >= lo && int32(s) <= hi {
			return true
		}
	}
	return false
}

// int32Range decodes plain-encoded INT32 statistics.
func int32Range(minV, maxV []byte) (int32, int32, bool) {
	if len(minV) != 4 || len(maxV) != 4 {
		return 0, 0, false
	}
	return int32(binary.LittleEndian.Uint32(minV)), int32(binary.LittleEndian.Uint32(maxV)), true
}
