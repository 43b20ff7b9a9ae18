package teams

import (
	"strings"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// IDBridge maps one player identifier namespace onto another, e.g. gsis
// player_id to PFR id, so per-player pages on a third-party site can be
// addressed from the native id.
type IDBridge struct {
	from, to string
	m        map[string]string
}

// NewIDBridge builds a unique mapping from fromCol to toCol across frames that
// share those columns. Rows with either side null are skipped; the first
// mapping seen for a key wins.
func NewIDBridge(fromCol, toCol string, frames ...*schema.Frame) *IDBridge {
	b := &IDBridge{from: fromCol, to: toCol, m: map[string]string{}}
	for _, f := range frames {
		if f == nil || !f.Has(fromCol) || !f.Has(toCol) {
			continue
		}
		fi, ti := f.Index(fromCol), f.Index(toCol)
		for i := 0; i < f.Len(); i++ {
			src := f.Cell(i, fi)
			dst := NormalizePfrID(f.Cell(i, ti))
			if schema.IsNull(src) || schema.IsNull(dst) {
				continue
			}
			if _, dup := b.m[src]; dup {
				continue
			}
			b.m[src] = dst
		}
	}
	return b
}

// Map returns the secondary id for primary.
func (b *IDBridge) Map(primary string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.m[strings.TrimSpace(primary)]
	return v, ok
}

// Len is the number of distinct primary ids.
func (b *IDBridge) Len() int {
	if b == nil {
		return 0
	}
	return len(b.m)
}

// Reverse returns the inverse mapping. When several primaries share a
// secondary id the lexicographically smallest primary is kept.
func (b *IDBridge) Reverse() *IDBridge {
	r := &IDBridge{from: b.to, to: b.from, m: make(map[string]string, len(b.m))}
	for k, v := range b.m {
		if cur, ok := r.m[v]; ok && cur < k {
			continue
		}
		r.m[v] = k
	}
	return r
}

// NormalizePfrID accepts "W/WattJJ00", "/players/W/WattJJ00.htm" or
// "WattJJ00" and returns "WattJJ00".
func NormalizePfrID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "/players/")
	if n := strings.LastIndexByte(id, '/'); n >= 0 {
		id = id[n+1:]
	}
	return strings.TrimSuffix(id, ".htm")
}
