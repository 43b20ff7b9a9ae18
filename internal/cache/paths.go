package cache

import (
	"log/slog"
	"path/filepath"

	"github.com/tyler180/nfl-datastore/internal/impact"
	"github.com/tyler180/nfl-datastore/internal/season"
)

// Artifact file names under the cache directory.
const (
	SeasonFile   = "basic_player_stats.parquet"
	ImpactsFile  = "player_impacts.parquet"
	SummaryFile  = "player_summary_stats.parquet"
	BioFile      = "pfr_player_bio.parquet"
	MetadataFile = "metadata.json"
)

// Paths resolves artifact locations under Dir.
type Paths struct {
	Dir string
}

func (p Paths) Season() string   { return filepath.Join(p.Dir, SeasonFile) }
func (p Paths) Impacts() string  { return filepath.Join(p.Dir, ImpactsFile) }
func (p Paths) Summary() string  { return filepath.Join(p.Dir, SummaryFile) }
func (p Paths) Bio() string      { return filepath.Join(p.Dir, BioFile) }
func (p Paths) Metadata() string { return filepath.Join(p.Dir, MetadataFile) }

// Stores bundles the four artifacts of one cache directory.
type Stores struct {
	Paths   Paths
	Season  *Store[season.Record]
	Impacts *Store[impact.Record]
	Summary *Store[SummaryRecord]
	Bio     *BioStore
}

// Open returns the stores rooted at dir. Files are not touched.
func Open(dir string, logger *slog.Logger) *Stores {
	if logger == nil {
		logger = slog.Default()
	}
	p := Paths{Dir: dir}
	lg := WithStoreLogger(logger)
	return &Stores{
		Paths:   p,
		Season:  NewStore(p.Season(), func(r *season.Record) int { return int(r.Season) }, lg),
		Impacts: NewStore(p.Impacts(), func(r *impact.Record) int { return int(r.Season) }, lg),
		Summary: NewStore(p.Summary(), func(r *SummaryRecord) int { return int(r.Season) }, lg),
		Bio:     NewBioStore(p.Bio(), lg),
	}
}
