package pfr

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchPlayerBio scrapes handedness and birthplace from a player page.
// Fields the page does not carry are NotAvailable.
func (c *Client) FetchPlayerBio(ctx context.Context, pfrID string) (Bio, error) {
	page, err := c.Fetch(ctx, PlayerPath(pfrID))
	if err != nil {
		return Bio{}, err
	}
	return ParseBio(page.HTML, pfrID), nil
}

// FetchPlayerTables returns the requested tables of a player page keyed by id.
// With no ids every table on the page is returned. Missing tables are skipped.
func (c *Client) FetchPlayerTables(ctx context.Context, pfrID string, ids ...string) (map[string]*Table, error) {
	page, err := c.Fetch(ctx, PlayerPath(pfrID))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = page.TableIDs()
	}
	out := make(map[string]*Table, len(ids))
	for _, id := range ids {
		t, err := page.Table(id)
		if errors.Is(err, ErrTableNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = t
	}
	return out, nil
}

// ParseBio reads the #meta block of a player page.
func ParseBio(page, pfrID string) Bio {
	b := emptyBio(pfrID)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return b
	}
	meta := doc.Find("#meta")
	if meta.Length() == 0 {
		meta = doc.Selection
	}

	meta.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		txt := cleanText(p.Text())
		i := strings.Index(txt, "Throws:")
		if i < 0 {
			return true
		}
		rest := strings.TrimSpace(txt[i+len("Throws:"):])
		if f := strings.Fields(rest); len(f) > 0 {
			b.Handedness = strings.Trim(f[0], "\u25aa,")
		}
		return false
	})

	place := meta.Find(`[itemprop="birthPlace"]`).First()
	if place.Length() == 0 {
		return b
	}
	loc := strings.TrimPrefix(cleanText(place.Text()), "in ")
	if city, state, ok := strings.Cut(loc, ","); ok {
		if city = strings.TrimSpace(city); city != "" {
			b.BirthCity = city
		}
		if f := strings.Fields(state); len(f) > 0 {
			b.BirthState = f[0]
		}
	} else if loc = strings.TrimSpace(loc); loc != "" {
		b.BirthCity = loc
	}

	place.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		u, err := url.Parse(a.AttrOr("href", ""))
		if err != nil {
			return true
		}
		q := u.Query()
		if country := q.Get("country"); country != "" {
			b.BirthCountry = country
			if st := q.Get("state"); st != "" {
				b.BirthState = st
			}
			return false
		}
		return true
	})
	return b
}
