// Package cache persists aggregated tables as zstd-compressed Parquet files
// at fixed paths and reads them back eagerly or through a filtered scan.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	parquet "github.com/parquet-go/parquet-go"
)

// ErrNotBuilt is returned when an artifact is read before it exists.
var ErrNotBuilt = errors.New("cache: artifact not built")

// DefaultRowGroupSize bounds the rows written per Parquet row group.
const DefaultRowGroupSize = 8192

// BuildFunc produces the rows of an artifact.
type BuildFunc[T any] func(ctx context.Context) ([]T, error)

// Store is one Parquet artifact holding rows of type T.
type Store[T any] struct {
	path         string
	season       func(*T) int
	rowGroupSize int
	lockWait     time.Duration
	logger       *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	rowGroupSize int
	lockWait     time.Duration
	logger       *slog.Logger
}

// WithRowGroupSize sets the number of rows per row group.
func WithRowGroupSize(n int) StoreOption { return func(c *storeConfig) { c.rowGroupSize = n } }

// WithLockWait sets the retry interval while waiting for the write lock.
func WithLockWait(d time.Duration) StoreOption { return func(c *storeConfig) { c.lockWait = d } }

// WithStoreLogger sets the logger.
func WithStoreLogger(l *slog.Logger) StoreOption { return func(c *storeConfig) { c.logger = l } }

// NewStore returns a store at path. season extracts the season of a row
// and enables season pushdown in Scan; it may be nil.
func NewStore[T any](path string, season func(*T) int, opts ...StoreOption) *Store[T] {
	cfg := storeConfig{rowGroupSize: DefaultRowGroupSize, lockWait: 100 * time.Millisecond, logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.rowGroupSize <= 0 {
		cfg.rowGroupSize = DefaultRowGroupSize
	}
	return &Store[T]{
		path:         path,
		season:       season,
		rowGroupSize: cfg.rowGroupSize,
		lockWait:     cfg.lockWait,
		logger:       cfg.logger,
	}
}

func (s *Store[T]) Path() string { return s.path }

// Exists reports whether the artifact file is present.
func (s *Store[T]) Exists() bool {
	st, err := os.Stat(s.path)
	return err == nil && st.Mode().IsRegular()
}

// Load reads every row of the artifact.
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotBuilt, s.path)
	}
	rows, err := parquet.ReadFile[T](s.path)
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", s.path, err)
	}
	return rows, nil
}

// Build returns the artifact rows, building them only when the file is
// absent or force is set. built reports whether fn ran.
func (s *Store[T]) Build(ctx context.Context, fn BuildFunc[T], force bool) (rows []T, built bool, err error) {
	if !force && s.Exists() {
		s.logger.Info("cache hit; skipping build", "path", s.path)
		rows, err = s.Load(ctx)
		return rows, false, err
	}
	rows, err = fn(ctx)
	if err != nil {
		return nil, true, err
	}
	if err := s.Write(ctx, rows); err != nil {
		return nil, true, err
	}
	return rows, true, nil
}

// Write replaces the artifact with rows. The file is written to a temp
// file in the same directory and renamed into place while holding an
// advisory lock on path+".lock".
func (s *Store[T]) Write(ctx context.Context, rows []T) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cache: mkdir %s: %w", dir, err)
	}

	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLockContext(ctx, s.lockWait)
	if err != nil {
		return fmt.Errorf("cache: lock %s: %w", s.path, err)
	}
	if !ok {
		return fmt.Errorf("cache: lock %s: not acquired", s.path)
	}
	defer lock.Unlock()

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	w := parquet.NewGenericWriter[T](tmp, parquet.Compression(&parquet.Zstd))
	for start := 0; start < len(rows); start += s.rowGroupSize {
		end := min(start+s.rowGroupSize, len(rows))
		if _, err := w.Write(rows[start:end]); err != nil {
			_ = w.Close()
			_ = tmp.Close()
			return fmt.Errorf("cache: write %s: %w", s.path, err)
		}
		if err := w.Flush(); err != nil {
			_ = w.Close()
			_ = tmp.Close()
			return fmt.Errorf("cache: flush %s: %w", s.path, err)
		}
	}
	if err := w.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cache: close writer %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("cache: rename into %s: %w", s.path, err)
	}
	s.logger.Info("wrote cache", "path", s.path, "rows", len(rows))
	return nil
}

// Info describes an artifact on disk.
type Info struct {
	Path     string    `json:"path"`
	Exists   bool      `json:"exists"`
	Rows     int64     `json:"rows"`
	Size     int64     `json:"size_bytes"`
	Modified time.Time `json:"modified,omitempty"`
}

// Info reports existence, row count and modification time without
// reading any row data.
func (s *Store[T]) Info() (Info, error) {
	info := Info{Path: s.path}
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return info, err
	}
	info.Exists = true
	info.Size = st.Size()
	info.Modified = st.ModTime()
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return info, fmt.Errorf("cache: open %s: %w", s.path, err)
	}
	info.Rows = pf.NumRows()
	return info, nil
}
