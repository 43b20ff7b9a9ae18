// Package resolver turns a loose player query (name plus optional team,
// draft and position hints) into one player identity from the nflverse
// players directory.
package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/position"
	"github.com/tyler180/nfl-datastore/internal/schema"
	"github.com/tyler180/nfl-datastore/internal/teams"
)

// ErrPlayerNotFound is returned when no player survives the query filters.
var ErrPlayerNotFound = errors.New("player not found")

// nameColumns are matched case-insensitively, in this order.
var nameColumns = []string{"display_name", "full_name", "football_name", "short_name", "name", "merge_name"}

// Query identifies a player. Use NewQuery to get trimmed values.
type Query struct {
	Name      string
	Team      string
	DraftYear int // 0 means any
	DraftTeam string
	Position  string
}

// NewQuery returns q with every text field trimmed.
func NewQuery(name, team string, draftYear int, draftTeam, pos string) Query {
	return Query{
		Name:      strings.TrimSpace(name),
		Team:      strings.TrimSpace(team),
		DraftYear: draftYear,
		DraftTeam: strings.TrimSpace(draftTeam),
		Position:  strings.TrimSpace(pos),
	}
}

type entry struct {
	profile    Profile
	names      []string // lower-cased name column values
	tokens     map[string]struct{}
	lastName   string
	positions  []string // raw position, position_group and fantasy feed position
	teams      []string
	draftYears []int
}

// Resolver answers queries against an in-memory players directory. It is
// immutable after New and safe for concurrent use.
type Resolver struct {
	entries []entry
	teams   *teams.Directory
	aliases map[string]position.Code // position words, e.g. QUARTERBACK
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*resolverOpts)

type resolverOpts struct {
	ids    *schema.Frame
	logger *slog.Logger
}

// WithIDs joins a fantasy player-id feed (db_playerids) on gsis_id. Its
// values fill columns the directory leaves empty.
func WithIDs(f *schema.Frame) Option { return func(o *resolverOpts) { o.ids = f } }

func WithLogger(l *slog.Logger) Option { return func(o *resolverOpts) { o.logger = l } }

// New indexes the players directory. dir normalizes team filters; nil uses
// the built-in team snapshot.
func New(players *schema.Frame, dir *teams.Directory, opts ...Option) (*Resolver, error) {
	o := resolverOpts{logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	if players == nil {
		return nil, fmt.Errorf("resolver: nil players frame")
	}
	hasName := false
	for _, c := range nameColumns {
		if players.Has(c) {
			hasName = true
			break
		}
	}
	if !hasName && !(players.Has("first_name") && players.Has("last_name")) {
		return nil, fmt.Errorf("resolver: no name columns: %w", schema.ErrMissingColumn)
	}
	if dir == nil {
		dir = teams.NewDirectory(teams.DefaultRecords(), o.logger)
	}

	var idRows map[string]int
	if o.ids != nil && o.ids.Has("gsis_id") {
		idRows = make(map[string]int, o.ids.Len())
		for j := 0; j < o.ids.Len(); j++ {
			id := o.ids.Value(j, "gsis_id")
			if schema.IsNull(id) {
				continue
			}
			if _, dup := idRows[id]; !dup {
				idRows[id] = j
			}
		}
	}

	r := &Resolver{entries: make([]entry, 0, players.Len()), teams: dir, logger: o.logger}
	for i := 0; i < players.Len(); i++ {
		rw := row{f: players, i: i, ids: o.ids, j: -1}
		if j, ok := idRows[players.Value(i, "gsis_id")]; ok {
			rw.j = j
		}
		r.entries = append(r.entries, newEntry(rw))
	}

	seen := map[position.Code]struct{}{}
	var present []position.Code
	for _, e := range r.entries {
		for _, p := range e.positions {
			for _, c := range position.ParseList(p) {
				if _, dup := seen[c]; !dup {
					seen[c] = struct{}{}
					present = append(present, c)
				}
			}
		}
	}
	r.aliases = position.BuildAliasLookup(present)
	return r, nil
}

func newEntry(rw row) entry {
	e := entry{profile: rw.profile(), tokens: map[string]struct{}{}}
	for _, c := range nameColumns {
		v := rw.get(c)
		if c == "full_name" && schema.IsNull(v) {
			v = rw.fullName()
		}
		if schema.IsNull(v) || v == "" {
			continue
		}
		e.names = append(e.names, strings.ToLower(v))
		for _, t := range tokenize(v) {
			e.tokens[t] = struct{}{}
		}
	}
	if v := rw.get("last_name"); !schema.IsNull(v) {
		e.lastName = strings.ToLower(v)
	} else if len(e.names) > 0 {
		words := strings.Fields(e.names[0])
		e.lastName = words[len(words)-1]
	}
	for _, v := range []string{rw.get("position"), rw.get("position_group"), rw.ff("position")} {
		if !schema.IsNull(v) && v != "" {
			e.positions = append(e.positions, v)
		}
	}
	for _, v := range []string{rw.get("latest_team"), rw.get("team")} {
		if !schema.IsNull(v) && v != "" {
			e.teams = append(e.teams, strings.ToUpper(v))
		}
	}
	for _, v := range []string{rw.get("draft_year"), rw.ff("draft_year")} {
		if f, ok := schema.ParseFloat(v); ok {
			e.draftYears = append(e.draftYears, int(f))
		}
	}
	return e
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// Len returns the number of indexed players.
func (r *Resolver) Len() int { return len(r.entries) }

// Resolve returns the most notable player matching q.
func (r *Resolver) Resolve(q Query) (Profile, error) {
	q = NewQuery(q.Name, q.Team, q.DraftYear, q.DraftTeam, q.Position)
	if q.Name == "" {
		return Profile{}, fmt.Errorf("%w: empty name", ErrPlayerNotFound)
	}
	cands := r.nameMatches(q.Name)
	if len(cands) == 0 {
		return Profile{}, fmt.Errorf("%w: no name matched %q", ErrPlayerNotFound, q.Name)
	}
	cands = r.filter(cands, q)
	if len(cands) == 0 {
		return Profile{}, fmt.Errorf("%w: no player matched %q with the given filters; try relaxing them", ErrPlayerNotFound, q.Name)
	}
	r.rank(cands)
	best := r.entries[cands[0]].profile
	r.logger.Debug("resolved player", "query", q.Name, "gsis_id", best.GsisID, "candidates", len(cands))
	return best, nil
}

// nameMatches unions exact name matches with the token fallback, deduped by
// gsis id, exact matches first.
func (r *Resolver) nameMatches(name string) []int {
	lower := strings.ToLower(name)
	var out []int
	seen := map[string]struct{}{}
	add := func(i int) {
		key := r.entries[i].profile.GsisID
		if key == "" {
			key = fmt.Sprintf("#%d", i)
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, i)
	}
	for i := range r.entries {
		for _, n := range r.entries[i].names {
			if n == lower {
				add(i)
				break
			}
		}
	}
	for _, i := range r.tokenMatches(name) {
		add(i)
	}
	return out
}

// tokenMatches finds players whose name tokens contain every query token,
// narrowed to last names containing the query's last word.
func (r *Resolver) tokenMatches(name string) []int {
	want := tokenize(name)
	if len(want) == 0 {
		return nil
	}
	words := strings.Fields(strings.ToLower(name))
	last := words[len(words)-1]
	var out []int
	for i := range r.entries {
		e := &r.entries[i]
		if !strings.Contains(e.lastName, last) {
			continue
		}
		ok := true
		for _, t := range want {
			if _, hit := e.tokens[t]; !hit {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func (r *Resolver) filter(cands []int, q Query) []int {
	if q.Position != "" {
		want, ok := position.Canonicalize(q.Position)
		if !ok {
			want, ok = position.Lookup(r.aliases, q.Position)
		}
		cands = keep(cands, func(i int) bool { return matchPosition(r.entries[i].positions, q.Position, want, ok) })
	}
	if q.DraftYear != 0 {
		cands = keep(cands, func(i int) bool {
			for _, y := range r.entries[i].draftYears {
				if y == q.DraftYear {
					return true
				}
			}
			return false
		})
	}
	if q.Team != "" {
		if abbr, ok := r.teams.Normalize(q.Team); ok {
			cands = keep(cands, func(i int) bool { return r.sameTeam(r.entries[i].teams, abbr) })
		} else {
			r.logger.Warn("team filter could not be normalized; ignoring filter", "team", q.Team)
		}
	}
	if q.DraftTeam != "" {
		if abbr, ok := r.teams.Normalize(q.DraftTeam); ok {
			cands = keep(cands, func(i int) bool {
				dt := r.entries[i].profile.DraftTeam
				return dt != "" && r.sameTeam([]string{dt}, abbr)
			})
		} else {
			r.logger.Warn("draft team filter could not be normalized; ignoring filter", "draft_team", q.DraftTeam)
		}
	}
	return cands
}

func (r *Resolver) sameTeam(have []string, abbr string) bool {
	for _, t := range have {
		if t == abbr {
			return true
		}
		if n, ok := r.teams.Normalize(t); ok && n == abbr {
			return true
		}
	}
	return false
}

// matchPosition compares canonical codes when the query resolved to one,
// else raw labels case-insensitively.
func matchPosition(have []string, raw string, want position.Code, canon bool) bool {
	for _, h := range have {
		if strings.EqualFold(strings.TrimSpace(h), raw) {
			return true
		}
		if canon && position.Matches([]position.Code{want}, h) {
			return true
		}
	}
	return false
}

func keep(in []int, pred func(int) bool) []int {
	out := in[:0]
	for _, i := range in {
		if pred(i) {
			out = append(out, i)
		}
	}
	return out
}

// rank orders candidates by notability: active status, then years of
// experience, then last season (draft year, then rookie season, when
// missing), then draft round with undrafted last. Ties keep input order.
func (r *Resolver) rank(cands []int) {
	sort.SliceStable(cands, func(a, b int) bool {
		pa, pb := &r.entries[cands[a]].profile, &r.entries[cands[b]].profile
		if x, y := active(pa), active(pb); x != y {
			return x
		}
		if pa.YearsExp != pb.YearsExp {
			return pa.YearsExp > pb.YearsExp
		}
		if x, y := lastSeason(pa), lastSeason(pb); x != y {
			return x > y
		}
		return draftRound(pa) < draftRound(pb)
	})
}

func active(p *Profile) bool { return p.Status == "ACT" }

func lastSeason(p *Profile) int {
	switch {
	case p.LastSeason != 0:
		return p.LastSeason
	case p.DraftYear != 0:
		return p.DraftYear
	default:
		return p.RookieSeason
	}
}

func draftRound(p *Profile) int {
	if p.DraftRound <= 0 {
		return 99
	}
	return p.DraftRound
}

// Search lists players whose full or display name contains text
// (case-insensitive), ranked by notability, at most limit of them.
func (r *Resolver) Search(text string, limit int) []Profile {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" || limit <= 0 {
		return nil
	}
	var cands []int
	for i := range r.entries {
		for _, n := range r.entries[i].names {
			if strings.Contains(n, needle) {
				cands = append(cands, i)
				break
			}
		}
	}
	r.rank(cands)
	if len(cands) > limit {
		cands = cands[:limit]
	}
	out := make([]Profile, len(cands))
	for k, i := range cands {
		out[k] = r.entries[i].profile
	}
	return out
}
