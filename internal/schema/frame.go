// Package schema holds the in-memory table type every loader converts into,
// and the reconciler that maps drifting source columns onto canonical fields.
package schema

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a feed.
var ErrMissingColumn = errors.New("required column missing")

// Frame is a header plus string rows. Empty strings and the usual NA markers
// are treated as null.
type Frame struct {
	Columns []string
	Rows    [][]string

	idx map[string]int
}

// New builds a frame from a header and rows. Column lookups are case-insensitive.
func New(columns []string, rows [][]string) *Frame {
	f := &Frame{Columns: columns, Rows: rows}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.idx = make(map[string]int, len(f.Columns))
	for i, c := range f.Columns {
		k := strings.ToLower(strings.TrimSpace(c))
		if _, dup := f.idx[k]; !dup {
			f.idx[k] = i
		}
	}
}

// FromCSV reads a whole CSV stream; the first record is the header.
func FromCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	hdr, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(hdr) > 0 {
		hdr[0] = strings.TrimPrefix(hdr[0], "\ufeff")
	}
	rows := make([][]string, 0, 1024)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}
	return New(hdr, rows), nil
}

// FromMaps converts keyed rows; columns are the sorted union of keys.
func FromMaps(rows []map[string]string) *Frame {
	set := map[string]struct{}{}
	for _, r := range rows {
		for k := range r {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	out := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = r[c]
		}
		out[i] = rec
	}
	return New(cols, out)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// Index returns the column position or -1.
func (f *Frame) Index(col string) int {
	if f == nil {
		return -1
	}
	if f.idx == nil {
		f.reindex()
	}
	if i, ok := f.idx[strings.ToLower(col)]; ok {
		return i
	}
	return -1
}

// Has reports whether col exists.
func (f *Frame) Has(col string) bool { return f.Index(col) >= 0 }

// Require returns ErrMissingColumn naming the first absent column.
func (f *Frame) Require(cols ...string) error {
	for _, c := range cols {
		if !f.Has(c) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	return nil
}

// Value returns the raw cell (trimmed) or "" when the column is absent.
func (f *Frame) Value(row int, col string) string {
	return f.Cell(row, f.Index(col))
}

// Cell returns the trimmed cell at (row, ci) or "".
func (f *Frame) Cell(row, ci int) string {
	if ci < 0 || row < 0 || row >= len(f.Rows) {
		return ""
	}
	rec := f.Rows[row]
	if ci >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[ci])
}

// IsNull reports whether a raw cell should be treated as missing.
func IsNull(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "nan", "null", "none", "<na>":
		return true
	}
	return false
}

// ParseFloat parses s, returning ok=false for null or non-numeric cells.
func ParseFloat(s string) (float64, bool) {
	if IsNull(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseInt parses an integer-ish cell ("12", "12.0"); def on failure.
func ParseInt(s string, def int) int {
	f, ok := ParseFloat(s)
	if !ok {
		return def
	}
	return int(f)
}

// Float returns the numeric value of (row, col), ok=false when null or absent.
func (f *Frame) Float(row int, col string) (float64, bool) {
	return ParseFloat(f.Value(row, col))
}

// Filter returns a new frame holding the rows for which keep returns true.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := make([][]string, 0, len(f.Rows))
	for i := range f.Rows {
		if keep(i) {
			out = append(out, f.Rows[i])
		}
	}
	return New(f.Columns, out)
}

// Concat appends frames with possibly different columns, aligning by name.
func Concat(frames ...*Frame) *Frame {
	var cols []string
	seen := map[string]struct{}{}
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		for _, c := range fr.Columns {
			k := strings.ToLower(c)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, c)
		}
	}
	out := New(cols, nil)
	for _, fr := range frames {
		if fr == nil {
			continue
		}
		pos := make([]int, len(cols))
		for j, c := range cols {
			pos[j] = fr.Index(c)
		}
		for i := range fr.Rows {
			rec := make([]string, len(cols))
			for j, p := range pos {
				rec[j] = fr.Cell(i, p)
			}
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}
