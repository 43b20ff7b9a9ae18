package nflverse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

type releaseResp struct {
	TagName string  `json:"tag_name"`
	Assets  []asset `json:"assets"`
}

type asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

// releaseShape resolves the download URL through the GitHub releases API,
// scoring assets by season, format and name. It is the fallback when none of
// the fixed layouts exist.
func (c *Client) releaseShape(tag, dataset string, perSeason bool) Shape {
	return Shape{
		Name:      "release-api:" + tag,
		PerSeason: perSeason,
		Resolve: func(ctx context.Context, season int) (string, error) {
			return c.resolveAssetURL(ctx, tag, dataset, season)
		},
	}
}

func (c *Client) resolveAssetURL(ctx context.Context, tag, dataset string, season int) (string, error) {
	api := fmt.Sprintf("%s/%s", c.apiURL, tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api, nil)
	if err != nil {
		return "", err
	}
	if c.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: github api: %w", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: release tag %s", errNotFound, tag)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: github api status %d for %s", ErrUpstreamUnavailable, resp.StatusCode, api)
	}
	var r releaseResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("%w: decode release json: %w", ErrUpstreamUnavailable, err)
	}

	best, ok := pickAsset(r.Assets, dataset, tag, season)
	if !ok {
		return "", fmt.Errorf("%w: no csv asset for %s season %d", errNotFound, tag, season)
	}
	c.logger.Debug("resolved asset", "dataset", dataset, "season", season, "asset", best.Name)
	return best.URL, nil
}

// pickAsset returns the highest scoring csv asset. With season > 0 only
// assets naming that season qualify.
func pickAsset(assets []asset, dataset, tag string, season int) (asset, bool) {
	year := strconv.Itoa(season)
	type cand struct {
		asset
		score int
	}
	var cands []cand
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if !strings.HasSuffix(name, ".csv") && !strings.HasSuffix(name, ".csv.gz") {
			continue
		}
		if season > 0 && !strings.Contains(name, year) {
			continue
		}
		s := 1
		if strings.HasSuffix(name, ".csv") {
			s += 2
		}
		if strings.Contains(name, strings.ToLower(dataset)) {
			s += 2
		}
		if strings.Contains(name, strings.ToLower(tag)) {
			s++
		}
		cands = append(cands, cand{a, s})
	}
	if len(cands) == 0 {
		return asset{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score == cands[j].score {
			return cands[i].Name < cands[j].Name
		}
		return cands[i].score > cands[j].score
	})
	return cands[0].asset, true
}
