// Package publish mirrors the local cache artifacts to S3, one key prefix
// per table so each can back an Athena external table.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tyler180/nfl-datastore/internal/cache"
)

type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Artifact is one local file and the table directory it is published under.
type Artifact struct {
	Table string
	Path  string
}

// Artifacts lists the cache files in publish order. metadata.json goes last
// so readers never see metadata for files not uploaded yet.
func Artifacts(p cache.Paths) []Artifact {
	return []Artifact{
		{Table: "player_season", Path: p.Season()},
		{Table: "player_impacts", Path: p.Impacts()},
		{Table: "player_summary", Path: p.Summary()},
		{Table: "player_bio", Path: p.Bio()},
		{Table: "", Path: p.Metadata()},
	}
}

// Uploaded describes one object written.
type Uploaded struct {
	Table string `json:"table,omitempty"`
	Key   string `json:"key"`
	Bytes int64  `json:"bytes"`
}

// Result of one Publish call.
type Result struct {
	Bucket   string     `json:"bucket"`
	Prefix   string     `json:"prefix"`
	Uploaded []Uploaded `json:"uploaded"`
	Skipped  []string   `json:"skipped,omitempty"` // local files that did not exist
}

// Location returns the s3:// directory holding table.
func (r *Result) Location(table string) string {
	return fmt.Sprintf("s3://%s/%s/", r.Bucket, Key(r.Prefix, table, ""))
}

type Publisher struct {
	s3      S3API
	bucket  string
	prefix  string
	archive bool
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Publisher)

// WithArchive also writes a timestamped copy of every artifact under
// <prefix>/archive/<stamp>/.
func WithArchive() Option { return func(p *Publisher) { p.archive = true } }

func WithClock(now func() time.Time) Option { return func(p *Publisher) { p.now = now } }

func WithLogger(l *slog.Logger) Option { return func(p *Publisher) { p.logger = l } }

func New(client S3API, bucket, prefix string, opts ...Option) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("publish: nil s3 client")
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("publish: empty bucket")
	}
	p := &Publisher{
		s3:     client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Key joins prefix, table and file name into an object key.
func Key(prefix, table, file string) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{strings.Trim(prefix, "/"), table, file} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return path.Join(parts...)
}

// Publish uploads every existing artifact. A missing local file is skipped;
// any upload error stops the run.
func (p *Publisher) Publish(ctx context.Context, arts []Artifact) (*Result, error) {
	res := &Result{Bucket: p.bucket, Prefix: p.prefix}
	stamp := p.now().UTC().Format("20060102T150405Z")
	for _, a := range arts {
		st, err := os.Stat(a.Path)
		if errors.Is(err, os.ErrNotExist) {
			res.Skipped = append(res.Skipped, a.Path)
			continue
		}
		if err != nil {
			return res, err
		}
		keys := []string{Key(p.prefix, a.Table, filepath.Base(a.Path))}
		if p.archive {
			keys = append(keys, Key(p.prefix, path.Join("archive", stamp, a.Table), filepath.Base(a.Path)))
		}
		for _, key := range keys {
			if err := p.put(ctx, key, a.Path, st.Size()); err != nil {
				return res, fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
			}
			res.Uploaded = append(res.Uploaded, Uploaded{Table: a.Table, Key: key, Bytes: st.Size()})
			p.logger.Info("uploaded artifact", "key", key, "bytes", st.Size())
		}
	}
	return res, nil
}

func (p *Publisher) put(ctx context.Context, key, file string, size int64) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	ct := "application/octet-stream"
	if strings.HasSuffix(file, ".json") {
		ct = "application/json"
	}
	_, err = p.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(ct),
	})
	return err
}
