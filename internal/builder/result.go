package builder

import (
	"errors"
	"fmt"
)

// ItemError is one per-item failure that did not stop the build.
type ItemError struct {
	Table string // artifact or step, e.g. "snaps", "bio", "impacts"
	Key   string // team/season, player id, ...
	Err   error
}

func (e *ItemError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Table, e.Key, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Result tracks counts and errors from one BuildAll run.
type Result struct {
	RunID       string       `json:"run_id"`
	Seasons     []int        `json:"seasons"`
	SeasonRows  int          `json:"season_rows"`
	SnapTeams   int          `json:"snap_teams"`
	SnapRows    int          `json:"snap_rows_merged"`
	BioUpdated  int          `json:"bio_updated"`
	ImpactRows  int          `json:"impact_rows"`
	SummaryRows int          `json:"summary_rows"`
	Errors      []*ItemError `json:"-"`

	fatal error
}

// AddError records a per-item failure.
func (r *Result) AddError(table, key string, err error) {
	r.Errors = append(r.Errors, &ItemError{Table: table, Key: key, Err: err})
}

// AddErrorf records a formatted per-item failure.
func (r *Result) AddErrorf(table, key, format string, args ...any) {
	r.AddError(table, key, fmt.Errorf(format, args...))
}

// ErrorStrings renders the item errors for logs and metadata.
func (r *Result) ErrorStrings() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Error()
	}
	return out
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("run=%s season_rows=%d snap_teams=%d snap_rows=%d bio=%d impacts=%d summary=%d errors=%d",
		r.RunID, r.SeasonRows, r.SnapTeams, r.SnapRows, r.BioUpdated, r.ImpactRows, r.SummaryRows, len(r.Errors))
}

// Err is non-nil only when the build failed outright. Per-item errors
// alone never make it non-nil.
func (r *Result) Err() error { return r.fatal }

// ItemErr joins every per-item error, or nil.
func (r *Result) ItemErr() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
