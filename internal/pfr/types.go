package pfr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL   = "https://www.pro-football-reference.com"
	DefaultUserAgent = "nfl-datastore/1.0 (+https://github.com/tyler180/nfl-datastore; respecting Sports-Reference policies)"

	// SnapCountsFirstSeason is the first season PFR publishes team snap counts for.
	SnapCountsFirstSeason = 2012

	// NotAvailable fills bio fields the page does not carry.
	NotAvailable = "N/A"
)

var (
	// ErrRateLimited is returned once 429 responses outlast the retry budget.
	ErrRateLimited = errors.New("pfr: rate limited")
	// ErrTableNotFound means the page loaded but has no table with the requested id.
	ErrTableNotFound = errors.New("pfr: table not found")
	// ErrTransport wraps network failures (DNS, reset, timeout).
	ErrTransport = errors.New("pfr: transport error")
)

// StatusError is a non-200, non-429 response. It is never retried.
type StatusError struct {
	URL        string
	StatusCode int
	BodyLen    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pfr: status %d for %s (body len=%d)", e.StatusCode, e.URL, e.BodyLen)
}

// SnapCount is one player row of a team's season snap-count table.
type SnapCount struct {
	PfrID        string
	Player       string
	Position     string
	Offense      int
	Defense      int
	SpecialTeams int
}

// Bio holds the slowly changing attributes scraped from a player page.
type Bio struct {
	PfrID        string
	Handedness   string
	BirthCity    string
	BirthState   string
	BirthCountry string
}

// emptyBio returns a Bio with every field set to NotAvailable.
func emptyBio(id string) Bio {
	return Bio{PfrID: id, Handedness: NotAvailable, BirthCity: NotAvailable, BirthState: NotAvailable, BirthCountry: NotAvailable}
}

var wsRe = regexp.MustCompile(`\s+`)

var numCleaner = strings.NewReplacer(",", "", "%", "", "\u00a0", "", "\u2009", "")

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return wsRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// atoi parses counts like "1,024" or "87%"; anything unparseable is 0.
func atoi(s string) int {
	s = strings.TrimSpace(numCleaner.Replace(s))
	if s == "" || s == "-" || s == "\u2014" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// PlayerPath returns the page path for a PFR id, e.g. /players/W/WattJJ00.htm.
func PlayerPath(pfrID string) string {
	id := strings.TrimSpace(pfrID)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("/players/%s/%s.htm", strings.ToUpper(id[:1]), id)
}

// SnapCountsPath returns the team season snap-count page path.
func SnapCountsPath(slug string, season int) string {
	return fmt.Sprintf("/teams/%s/%d-snap-counts.htm", strings.ToLower(strings.TrimSpace(slug)), season)
}
