package cache

import (
	"context"
	"sort"
	"strings"
)

// NotAvailable fills bio fields the source page did not carry.
const NotAvailable = "N/A"

// BioRecord is one row of the bio sub-cache, keyed by PFR id.
type BioRecord struct {
	PfrID        string `parquet:"pfr_id" json:"pfr_id"`
	Handedness   string `parquet:"handedness" json:"handedness"`
	BirthCity    string `parquet:"birth_city" json:"birth_city"`
	BirthState   string `parquet:"birth_state" json:"birth_state"`
	BirthCountry string `parquet:"birth_country" json:"birth_country"`
}

func (b *BioRecord) fill() {
	for _, p := range []*string{&b.Handedness, &b.BirthCity, &b.BirthState, &b.BirthCountry} {
		if strings.TrimSpace(*p) == "" {
			*p = NotAvailable
		}
	}
}

// BioStore is the one artifact that supports keyed upserts.
type BioStore struct {
	*Store[BioRecord]
}

func NewBioStore(path string, opts ...StoreOption) *BioStore {
	return &BioStore{Store: NewStore[BioRecord](path, nil, opts...)}
}

// All returns the cached bios, or none when the artifact is absent.
func (b *BioStore) All(ctx context.Context) ([]BioRecord, error) {
	if !b.Exists() {
		return nil, nil
	}
	return b.Load(ctx)
}

// ByID indexes the cached bios by PFR id.
func (b *BioStore) ByID(ctx context.Context) (map[string]BioRecord, error) {
	rows, err := b.All(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]BioRecord, len(rows))
	for _, r := range rows {
		m[r.PfrID] = r
	}
	return m, nil
}

// Upsert merges entries into the cache, last write wins per PFR id, and
// rewrites the whole artifact. Empty fields are stored as N/A. It returns
// the number of rows in the rewritten artifact.
func (b *BioStore) Upsert(ctx context.Context, entries []BioRecord) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	byID, err := b.ByID(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.PfrID == "" {
			continue
		}
		e.fill()
		byID[e.PfrID] = e
	}
	out := make([]BioRecord, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PfrID < out[j].PfrID })
	if err := b.Write(ctx, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

// Missing returns the ids, deduped and in input order, that have no
// cached bio.
func (b *BioStore) Missing(ctx context.Context, ids []string) ([]string, error) {
	have, err := b.ByID(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := have[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
