package cache

import (
	"context"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/position"
)

// Any is the unset sentinel accepted by Criteria string fields.
const Any = "Any"

// Criteria filters the summary artifact. Empty values and Any are
// ignored rather than compared.
type Criteria struct {
	PlayerIDs      []string
	Seasons        []int
	Teams          []string
	Positions      []string
	PositionGroups []string
	NameContains   string
	MinGames       int
}

func set(vals []string, norm func(string) string) map[string]struct{} {
	var m map[string]struct{}
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || strings.EqualFold(v, Any) {
			continue
		}
		if m == nil {
			m = map[string]struct{}{}
		}
		m[norm(v)] = struct{}{}
	}
	return m
}

func in(m map[string]struct{}, v string) bool {
	if m == nil {
		return true
	}
	_, ok := m[v]
	return ok
}

func canonical(raw string) string {
	if c, ok := position.Canonicalize(raw); ok {
		return string(c)
	}
	return strings.ToUpper(strings.TrimSpace(raw))
}

func identity(s string) string { return s }

// predicate compiles the non-season filters.
func (c Criteria) predicate() func(*SummaryRecord) bool {
	ids := set(c.PlayerIDs, identity)
	teams := set(c.Teams, strings.ToUpper)
	positions := set(c.Positions, canonical)
	groups := set(c.PositionGroups, strings.ToUpper)
	name := strings.ToLower(strings.TrimSpace(c.NameContains))
	if strings.EqualFold(name, Any) {
		name = ""
	}
	return func(r *SummaryRecord) bool {
		if !in(ids, r.PlayerID) || !in(teams, r.Team) || !in(groups, r.PositionGroup) {
			return false
		}
		if !in(positions, canonical(r.Position)) {
			return false
		}
		if name != "" && !strings.Contains(strings.ToLower(r.PlayerName), name) {
			return false
		}
		return c.MinGames <= 0 || int(r.GamesPlayed) >= c.MinGames
	}
}

// Summaries scans the summary artifact with the criteria applied.
func (s *Stores) Summaries(ctx context.Context, c Criteria) ([]SummaryRecord, error) {
	return s.Summary.Scan().Seasons(c.Seasons...).Where(c.predicate()).Collect(ctx)
}

// PlayerView is everything cached for one player.
type PlayerView struct {
	PlayerID string          `json:"player_id"`
	Seasons  []SummaryRecord `json:"seasons"`
	Bio      *BioRecord      `json:"bio,omitempty"`
}

// PlayerSummary returns every summary row of one player plus the cached
// bio when the rows carry a PFR id.
func (s *Stores) PlayerSummary(ctx context.Context, playerID string) (*PlayerView, error) {
	rows, err := s.Summaries(ctx, Criteria{PlayerIDs: []string{playerID}})
	if err != nil {
		return nil, err
	}
	v := &PlayerView{PlayerID: playerID, Seasons: rows}
	var pfrID string
	for _, r := range rows {
		if r.PfrID != "" {
			pfrID = r.PfrID
		}
	}
	if pfrID == "" {
		return v, nil
	}
	bios, err := s.Bio.ByID(ctx)
	if err != nil {
		return nil, err
	}
	if b, ok := bios[pfrID]; ok {
		v.Bio = &b
	}
	return v, nil
}
