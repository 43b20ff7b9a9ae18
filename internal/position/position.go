// Package position maps raw position labels from any feed onto a small closed
// set of canonical codes.
package position

import "strings"

// Code is a canonical position code such as "QB" or "EDGE".
type Code string

const (
	QB   Code = "QB"
	RB   Code = "RB"
	FB   Code = "FB"
	WR   Code = "WR"
	TE   Code = "TE"
	OL   Code = "OL"
	OT   Code = "OT"
	OG   Code = "OG"
	OC   Code = "OC"
	DL   Code = "DL"
	DE   Code = "DE"
	DT   Code = "DT"
	NT   Code = "NT"
	EDGE Code = "EDGE"
	LB   Code = "LB"
	ILB  Code = "ILB"
	OLB  Code = "OLB"
	DB   Code = "DB"
	CB   Code = "CB"
	S    Code = "S"
	FS   Code = "FS"
	SS   Code = "SS"
	K    Code = "K"
	P    Code = "P"
	PR   Code = "PR"
	KR   Code = "KR"
	LS   Code = "LS"
)

// aliases lists the free-text spellings accepted for each canonical code in
// user-facing lookups. The first entry is always the code itself.
var aliases = map[Code][]string{
	QB:   {"QB", "QUARTERBACK"},
	RB:   {"RB", "RUNNING BACK", "TAILBACK", "HALFBACK"},
	FB:   {"FB", "FULLBACK"},
	WR:   {"WR", "WIDE RECEIVER"},
	TE:   {"TE", "TIGHT END"},
	OL:   {"OL", "OFFENSIVE LINE", "LINEMAN", "OLINE"},
	OT:   {"OT", "OFFENSIVE TACKLE", "TACKLE", "T"},
	OG:   {"OG", "OFFENSIVE GUARD", "GUARD", "G"},
	OC:   {"OC", "CENTER", "C"},
	DL:   {"DL", "DEFENSIVE LINE", "DEFENSIVE LINEMAN", "DLINE"},
	DE:   {"DE", "DEFENSIVE END"},
	DT:   {"DT", "DEFENSIVE TACKLE"},
	NT:   {"NT", "NOSE TACKLE"},
	EDGE: {"EDGE", "PASS RUSHER"},
	LB:   {"LB", "LINEBACKER"},
	ILB:  {"ILB", "INSIDE LINEBACKER", "MIDDLE LINEBACKER", "MLB"},
	OLB:  {"OLB", "OUTSIDE LINEBACKER", "WLB", "SLB"},
	DB:   {"DB", "DEFENSIVE BACK"},
	CB:   {"CB", "CORNERBACK"},
	S:    {"S", "SAFETY"},
	FS:   {"FS", "FREE SAFETY"},
	SS:   {"SS", "STRONG SAFETY"},
	K:    {"K", "KICKER"},
	P:    {"P", "PUNTER"},
	PR:   {"PR", "PUNT RETURNER"},
	KR:   {"KR", "KICK RETURNER"},
	LS:   {"LS", "LONG SNAPPER"},
}

// synonyms resolves abbreviation drift between feeds before matching.
var synonyms = map[string]Code{
	"SAF": S,
	"HB":  RB,
	"HBK": RB,
	"FBK": FB,
	"T":   OT,
	"G":   OG,
	"C":   OC,
}

// Group names used to bucket canonical codes.
const (
	GroupOffenseSkill    = "offense_skill"
	GroupOffenseLine     = "offense_line"
	GroupDefenseFront    = "defense_front"
	GroupDefenseCoverage = "defense_coverage"
	GroupSpecialTeams    = "special_teams"
)

var groups = map[Code]string{
	QB: GroupOffenseSkill, RB: GroupOffenseSkill, WR: GroupOffenseSkill, TE: GroupOffenseSkill, FB: GroupOffenseSkill,
	OL: GroupOffenseLine, OT: GroupOffenseLine, OG: GroupOffenseLine, OC: GroupOffenseLine,
	DL: GroupDefenseFront, DE: GroupDefenseFront, DT: GroupDefenseFront, NT: GroupDefenseFront,
	EDGE: GroupDefenseFront, LB: GroupDefenseFront, ILB: GroupDefenseFront, OLB: GroupDefenseFront,
	DB: GroupDefenseCoverage, CB: GroupDefenseCoverage, S: GroupDefenseCoverage, FS: GroupDefenseCoverage, SS: GroupDefenseCoverage,
	K: GroupSpecialTeams, P: GroupSpecialTeams, PR: GroupSpecialTeams, KR: GroupSpecialTeams, LS: GroupSpecialTeams,
}

// IsCanonical reports whether c belongs to the closed vocabulary.
func IsCanonical(c Code) bool {
	_, ok := aliases[c]
	return ok
}

// Canonicalize maps a raw label to its canonical code. Unknown or empty input
// returns ok=false; callers exclude such rows from position grouping.
func Canonicalize(raw string) (Code, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return "", false
	}
	if c, ok := synonyms[upper]; ok {
		return c, true
	}
	c := Code(upper)
	if !IsCanonical(c) {
		return "", false
	}
	return c, true
}

// Group returns the position bucket for c, or "" for non-canonical input.
func Group(c Code) string {
	return groups[c]
}

// NormalizeKey upper-cases s and keeps only letters and digits.
func NormalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildAliasLookup expands the alias table for the codes present in a dataset
// and self-maps each present code. Keys are NormalizeKey'd.
func BuildAliasLookup(present []Code) map[string]Code {
	have := make(map[Code]struct{}, len(present))
	lookup := make(map[string]Code, len(present)*3)
	for _, c := range present {
		have[c] = struct{}{}
		lookup[NormalizeKey(string(c))] = c
	}
	for c, names := range aliases {
		if _, ok := have[c]; !ok {
			continue
		}
		for _, a := range names {
			lookup[NormalizeKey(a)] = c
		}
	}
	return lookup
}

// Lookup resolves user input through an alias map built by BuildAliasLookup.
func Lookup(m map[string]Code, input string) (Code, bool) {
	c, ok := m[NormalizeKey(input)]
	return c, ok
}

// ParseList splits a comma separated list of labels and keeps the canonical ones.
func ParseList(csv string) []Code {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]Code, 0, len(parts))
	for _, p := range parts {
		if c, ok := Canonicalize(p); ok {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether pos (possibly "DE,LB") canonicalizes to any of allow.
// An empty allow list matches everything.
func Matches(allow []Code, pos string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, p := range strings.Split(pos, ",") {
		c, ok := Canonicalize(p)
		if !ok {
			continue
		}
		for _, want := range allow {
			if c == want {
				return true
			}
		}
	}
	return false
}
