package builder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tyler180/nfl-datastore/internal/cache"
)

// SchemaVersion is bumped when an artifact layout changes.
const SchemaVersion = 2

// maxLoggedErrors bounds the error log kept in metadata.json.
const maxLoggedErrors = 200

// Metadata is persisted next to the artifacts after every run.
type Metadata struct {
	SchemaVersion int                  `json:"schema_version"`
	FirstSeason   int                  `json:"first_season,omitempty"`
	LastSeason    int                  `json:"last_season,omitempty"`
	LastRunID     string               `json:"last_run_id,omitempty"`
	LastRun       time.Time            `json:"last_run"`
	Tables        map[string]time.Time `json:"tables"`
	Errors        []string             `json:"errors,omitempty"`
}

// ReadMetadata loads metadata.json; a missing file yields (nil, nil).
func ReadMetadata(path string) (*Metadata, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("metadata %s: %w", path, err)
	}
	return &m, nil
}

// WriteMetadata replaces metadata.json via a temp file and rename.
func WriteMetadata(path string, m *Metadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (b *Builder) recordRun(res *Result, touched map[string]bool) {
	path := b.stores.Paths.Metadata()
	m, err := ReadMetadata(path)
	if err != nil {
		b.logger.Warn("metadata unreadable; starting fresh", "path", path, "err", err)
	}
	if m == nil {
		m = &Metadata{}
	}
	if m.Tables == nil {
		m.Tables = map[string]time.Time{}
	}
	now := b.now().UTC()
	m.SchemaVersion = SchemaVersion
	m.LastRun = now
	m.LastRunID = res.RunID
	if n := len(res.Seasons); n > 0 {
		m.FirstSeason, m.LastSeason = res.Seasons[0], res.Seasons[n-1]
	}
	for table, ok := range touched {
		if ok {
			m.Tables[table] = now
		}
	}
	m.Errors = append(m.Errors, res.ErrorStrings()...)
	if over := len(m.Errors) - maxLoggedErrors; over > 0 {
		m.Errors = m.Errors[over:]
	}
	if err := WriteMetadata(path, m); err != nil {
		b.logger.Warn("write metadata failed", "path", path, "err", err)
	}
}

// StatusReport describes every artifact plus the persisted metadata.
type StatusReport struct {
	Dir       string                `json:"dir"`
	Artifacts map[string]cache.Info `json:"artifacts"`
	Metadata  *Metadata             `json:"metadata,omitempty"`
}

// Status reports existence, row counts and modification times without
// loading any artifact.
func (b *Builder) Status(ctx context.Context) (*StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := &StatusReport{Dir: b.stores.Paths.Dir, Artifacts: map[string]cache.Info{}}
	infos := map[string]func() (cache.Info, error){
		tableSeason:  b.stores.Season.Info,
		tableImpacts: b.stores.Impacts.Info,
		tableSummary: b.stores.Summary.Info,
		tableBio:     b.stores.Bio.Info,
	}
	for name, fn := range infos {
		info, err := fn()
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", name, err)
		}
		rep.Artifacts[name] = info
	}
	m, err := ReadMetadata(b.stores.Paths.Metadata())
	if err != nil {
		return nil, err
	}
	rep.Metadata = m
	return rep, nil
}
