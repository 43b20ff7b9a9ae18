// Package teams normalizes free-text team identifiers to abbreviations and
// bridges player identifier namespaces between feeds.
package teams

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Record is one reference team row. Abbr is the canonical abbreviation; the
// remaining fields are alternate spellings used by different sources.
type Record struct {
	Abbr       string
	Full       string
	Nickname   string
	Location   string
	Hyphenated string
	NFL        string
	PFR        string // PFR abbreviation, e.g. "GNB"
	ESPN       string
	Slug       string // PFR URL path, e.g. "gnb"
	Aliases    []string
}

// DefaultRecords is a built-in snapshot of the 32 current franchises, used
// when the reference feed is unavailable.
func DefaultRecords() []Record {
	return []Record{
		{Abbr: "ARI", Full: "Arizona Cardinals", Location: "Arizona", Nickname: "Cardinals", PFR: "ARI", Slug: "crd", Aliases: []string{"ARZ", "PHO"}},
		{Abbr: "ATL", Full: "Atlanta Falcons", Location: "Atlanta", Nickname: "Falcons", PFR: "ATL", Slug: "atl"},
		{Abbr: "BAL", Full: "Baltimore Ravens", Location: "Baltimore", Nickname: "Ravens", PFR: "BAL", Slug: "rav", Aliases: []string{"BLT"}},
		{Abbr: "BUF", Full: "Buffalo Bills", Location: "Buffalo", Nickname: "Bills", PFR: "BUF", Slug: "buf"},
		{Abbr: "CAR", Full: "Carolina Panthers", Location: "Carolina", Nickname: "Panthers", PFR: "CAR", Slug: "car"},
		{Abbr: "CHI", Full: "Chicago Bears", Location: "Chicago", Nickname: "Bears", PFR: "CHI", Slug: "chi"},
		{Abbr: "CIN", Full: "Cincinnati Bengals", Location: "Cincinnati", Nickname: "Bengals", PFR: "CIN", Slug: "cin"},
		{Abbr: "CLE", Full: "Cleveland Browns", Location: "Cleveland", Nickname: "Browns", PFR: "CLE", Slug: "cle", Aliases: []string{"CLV"}},
		{Abbr: "DAL", Full: "Dallas Cowboys", Location: "Dallas", Nickname: "Cowboys", PFR: "DAL", Slug: "dal"},
		{Abbr: "DEN", Full: "Denver Broncos", Location: "Denver", Nickname: "Broncos", PFR: "DEN", Slug: "den"},
		{Abbr: "DET", Full: "Detroit Lions", Location: "Detroit", Nickname: "Lions", PFR: "DET", Slug: "det"},
		{Abbr: "GB", Full: "Green Bay Packers", Location: "Green Bay", Nickname: "Packers", PFR: "GNB", Slug: "gnb"},
		{Abbr: "HOU", Full: "Houston Texans", Location: "Houston", Nickname: "Texans", PFR: "HOU", Slug: "htx", Aliases: []string{"HST"}},
		{Abbr: "IND", Full: "Indianapolis Colts", Location: "Indianapolis", Nickname: "Colts", PFR: "IND", Slug: "clt"},
		{Abbr: "JAX", Full: "Jacksonville Jaguars", Location: "Jacksonville", Nickname: "Jaguars", PFR: "JAX", Slug: "jax", Aliases: []string{"JAC"}},
		{Abbr: "KC", Full: "Kansas City Chiefs", Location: "Kansas City", Nickname: "Chiefs", PFR: "KAN", Slug: "kan"},
		{Abbr: "LV", Full: "Las Vegas Raiders", Location: "Las Vegas", Nickname: "Raiders", PFR: "LVR", Slug: "rai", Aliases: []string{"OAK", "Oakland Raiders"}},
		{Abbr: "LAC", Full: "Los Angeles Chargers", Location: "Los Angeles", Nickname: "Chargers", PFR: "LAC", Slug: "sdg", Aliases: []string{"SD", "SDG", "San Diego Chargers"}},
		{Abbr: "LA", Full: "Los Angeles Rams", Location: "Los Angeles", Nickname: "Rams", PFR: "LAR", Slug: "ram", Aliases: []string{"STL", "St. Louis Rams"}},
		{Abbr: "MIA", Full: "Miami Dolphins", Location: "Miami", Nickname: "Dolphins", PFR: "MIA", Slug: "mia"},
		{Abbr: "MIN", Full: "Minnesota Vikings", Location: "Minnesota", Nickname: "Vikings", PFR: "MIN", Slug: "min"},
		{Abbr: "NE", Full: "New England Patriots", Location: "New England", Nickname: "Patriots", PFR: "NWE", Slug: "nwe"},
		{Abbr: "NO", Full: "New Orleans Saints", Location: "New Orleans", Nickname: "Saints", PFR: "NOR", Slug: "nor"},
		{Abbr: "NYG", Full: "New York Giants", Location: "New York", Nickname: "Giants", PFR: "NYG", Slug: "nyg"},
		{Abbr: "NYJ", Full: "New York Jets", Location: "New York", Nickname: "Jets", PFR: "NYJ", Slug: "nyj"},
		{Abbr: "PHI", Full: "Philadelphia Eagles", Location: "Philadelphia", Nickname: "Eagles", PFR: "PHI", Slug: "phi"},
		{Abbr: "PIT", Full: "Pittsburgh Steelers", Location: "Pittsburgh", Nickname: "Steelers", PFR: "PIT", Slug: "pit"},
		{Abbr: "SF", Full: "San Francisco 49ers", Location: "San Francisco", Nickname: "49ers", PFR: "SFO", Slug: "sfo"},
		{Abbr: "SEA", Full: "Seattle Seahawks", Location: "Seattle", Nickname: "Seahawks", PFR: "SEA", Slug: "sea"},
		{Abbr: "TB", Full: "Tampa Bay Buccaneers", Location: "Tampa Bay", Nickname: "Buccaneers", PFR: "TAM", Slug: "tam"},
		{Abbr: "TEN", Full: "Tennessee Titans", Location: "Tennessee", Nickname: "Titans", PFR: "TEN", Slug: "oti"},
		{Abbr: "WAS", Full: "Washington Commanders", Location: "Washington", Nickname: "Commanders", PFR: "WAS", Slug: "was", Aliases: []string{"WSH", "Washington Football Team", "Washington Redskins"}},
	}
}

// Directory maps many spellings of a team onto one abbreviation. It is built
// explicitly and passed to the components that need it.
type Directory struct {
	mu      sync.RWMutex
	records []Record
	exact   map[string]string
	compact map[string]string
	slugs   map[string]string
	logger  *slog.Logger
}

// NewDirectory builds a directory from reference records.
func NewDirectory(records []Record, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Directory{records: records, logger: logger}
	d.Build()
	return d
}

// Build (re)computes the lookup tables from the current records.
func (d *Directory) Build() {
	d.mu.Lock()
	defer d.mu.Unlock()

	exact := make(map[string]string, len(d.records)*10)
	var order []string // exact keys in record order
	put := func(k, abbr string) {
		if _, ok := exact[k]; !ok {
			order = append(order, k)
		}
		exact[k] = abbr
	}
	slugs := make(map[string]string, len(d.records)*3)
	for _, r := range d.records {
		abbr := strings.ToUpper(strings.TrimSpace(r.Abbr))
		if abbr == "" {
			continue
		}
		cands := []string{abbr, r.Full, r.Nickname, r.Location, r.Hyphenated, r.NFL, r.PFR, r.ESPN}
		cands = append(cands, r.Aliases...)
		for _, c := range cands {
			c = strings.ToLower(strings.TrimSpace(c))
			if c == "" {
				continue
			}
			// Shared locations ("los angeles", "new york") stay with the first team.
			if _, taken := exact[c]; taken && strings.ToLower(r.Location) == c {
				continue
			}
			put(c, abbr)
		}
		if combo := strings.TrimSpace(r.Location + " " + r.Nickname); combo != "" {
			put(strings.ToLower(combo), abbr)
		}
		if r.Slug != "" {
			slug := strings.ToLower(r.Slug)
			slugs[abbr] = slug
			for _, a := range []string{r.PFR, r.NFL, r.ESPN} {
				if a = strings.ToUpper(strings.TrimSpace(a)); a != "" {
					slugs[a] = slug
				}
			}
			for _, a := range r.Aliases {
				if a = strings.ToUpper(strings.TrimSpace(a)); len(a) <= 4 && a != "" {
					slugs[a] = slug
				}
			}
		}
	}
	// Colliding stripped keys go to the earliest record.
	compact := make(map[string]string, len(exact))
	for _, k := range order {
		ck := alnum(k)
		if _, taken := compact[ck]; !taken {
			compact[ck] = exact[k]
		}
	}
	d.exact, d.compact, d.slugs = exact, compact, slugs
}

// Refresh swaps in a new reference snapshot.
func (d *Directory) Refresh(records []Record) {
	d.mu.Lock()
	d.records = records
	d.mu.Unlock()
	d.Build()
}

// Normalize returns the abbreviation for raw. Lookup order is exact
// case-insensitive, alphanumeric-stripped, then a 3-letter alphabetic string
// is taken as already being an abbreviation. Anything else is rejected.
func (d *Directory) Normalize(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	key := strings.ToLower(v)
	if abbr, ok := d.exact[key]; ok {
		return abbr, true
	}
	if ck := alnum(key); ck != "" {
		if abbr, ok := d.compact[ck]; ok {
			return abbr, true
		}
	}
	if len(v) == 3 && isAlpha(v) {
		return strings.ToUpper(v), true
	}
	d.logger.Debug("unable to normalize team identifier", "value", raw)
	return "", false
}

// Slug returns the PFR URL path segment for a team abbreviation in any of the
// known abbreviation schemes (GB, GNB, KC, KAN, OAK, ...).
func (d *Directory) Slug(abbr string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.slugs[strings.ToUpper(strings.TrimSpace(abbr))]
	return s, ok
}

// Abbrs returns every canonical abbreviation in reference order.
func (d *Directory) Abbrs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, strings.ToUpper(r.Abbr))
	}
	return out
}

// LoadRecords converts the nflverse teams table into records. Columns follow
// either the teams_colors_logos export or the load_teams layout.
func LoadRecords(f *schema.Frame) []Record {
	defaults := map[string]Record{}
	for _, r := range DefaultRecords() {
		defaults[r.Abbr] = r
	}
	seen := map[string]struct{}{}
	out := make([]Record, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		abbr := strings.ToUpper(schema.FirstString(f, i, "", "team_abbr", "team"))
		if abbr == "" {
			continue
		}
		if _, dup := seen[abbr]; dup {
			continue
		}
		seen[abbr] = struct{}{}
		full := schema.FirstString(f, i, "", "team_name", "full")
		nick := schema.FirstString(f, i, "", "team_nick", "nickname")
		loc := schema.FirstString(f, i, "", "location")
		if loc == "" && nick != "" && strings.HasSuffix(full, nick) {
			loc = strings.TrimSpace(strings.TrimSuffix(full, nick))
		}
		r := Record{
			Abbr:       abbr,
			Full:       full,
			Nickname:   nick,
			Location:   loc,
			Hyphenated: schema.FirstString(f, i, "", "hyphenated"),
			NFL:        schema.FirstString(f, i, "", "nfl"),
			PFR:        schema.FirstString(f, i, "", "pfr"),
			ESPN:       schema.FirstString(f, i, "", "espn"),
		}
		if def, ok := defaults[abbr]; ok {
			r.Slug = def.Slug
			r.Aliases = def.Aliases
			if r.PFR == "" {
				r.PFR = def.PFR
			}
		}
		out = append(out, r)
	}
	return out
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return true
}
