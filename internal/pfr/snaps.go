package pfr

import (
	"context"
	"fmt"
	"strings"

	"github.com/tyler180/nfl-datastore/internal/teams"
)

// SnapCountsTableID is the table id on team snap-count pages.
const SnapCountsTableID = "snap_counts"

// FetchTeamSnapCounts scrapes a team's season snap counts. slug is the PFR
// team path ("gnb", "kan", ...).
func (c *Client) FetchTeamSnapCounts(ctx context.Context, slug string, season int) ([]SnapCount, error) {
	if season < SnapCountsFirstSeason {
		return nil, nil
	}
	page, err := c.Fetch(ctx, SnapCountsPath(slug, season))
	if err != nil {
		return nil, err
	}
	t, err := page.Table(SnapCountsTableID)
	if err != nil {
		return nil, fmt.Errorf("snap counts %s %d: %w", slug, season, err)
	}
	out := ParseSnapCounts(t)
	c.logger.Debug("pfr snap counts", "team", slug, "season", season, "rows", len(out))
	return out, nil
}

// ParseSnapCounts reads the player rows of a snap_counts table. The player
// cell is the row header; the td cells are position, offense num/pct,
// defense num/pct and special teams num/pct.
func ParseSnapCounts(t *Table) []SnapCount {
	out := make([]SnapCount, 0, len(t.Rows))
	for _, row := range t.Rows {
		var player *Cell
		tds := make([]Cell, 0, len(row))
		for i := range row {
			if row[i].Header && player == nil {
				player = &row[i]
				continue
			}
			tds = append(tds, row[i])
		}
		if player == nil || player.Text == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(player.Text), "team total") {
			continue
		}
		id := player.AppendCSV
		if id == "" && player.Href != "" {
			id = teams.NormalizePfrID(player.Href)
		}
		if id == "" || len(tds) < 6 {
			continue
		}
		out = append(out, SnapCount{
			PfrID:        id,
			Player:       player.Text,
			Position:     tds[0].Text,
			Offense:      atoi(tds[1].Text),
			Defense:      atoi(tds[3].Text),
			SpecialTeams: atoi(tds[5].Text),
		})
	}
	return out
}
