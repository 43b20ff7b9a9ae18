package pfr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/tyler180/nfl-datastore/internal/schema"
)

// Cell is one table cell with the attributes Sports-Reference pages use to
// carry machine-readable ids.
type Cell struct {
	Text      string
	Stat      string // data-stat
	AppendCSV string // data-append-csv, usually the player id
	Href      string // first link in the cell
	Header    bool   // rendered as <th>
}

// Table is an extracted HTML table with flat column names.
type Table struct {
	ID      string
	Columns []string
	Rows    [][]Cell
}

// Frame converts the table into a schema.Frame of cell texts.
func (t *Table) Frame() *schema.Frame {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out := make([]string, len(t.Columns))
		for i := 0; i < len(out) && i < len(r); i++ {
			out[i] = r[i].Text
		}
		rows = append(rows, out)
	}
	return schema.New(t.Columns, rows)
}

// ReadTableByID returns the table with the given id whether it is rendered
// directly or wrapped in an HTML comment. The div_{id} wrapper is searched
// first, then every comment on the page.
func ReadTableByID(page, id string) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("pfr: parse html: %w", err)
	}
	if sel := doc.Find(tableSelector(id)).First(); sel.Length() > 0 {
		return parseTable(id, sel), nil
	}

	var scopes []*html.Node
	if wrap := doc.Find(fmt.Sprintf(`div[id=%q]`, "div_"+id)); wrap.Length() > 0 {
		scopes = append(scopes, wrap.Nodes...)
	}
	scopes = append(scopes, doc.Nodes...)

	marker := fmt.Sprintf(`id="%s"`, id)
	for _, scope := range scopes {
		for _, c := range comments(scope) {
			if !strings.Contains(c, marker) {
				continue
			}
			inner, err := goquery.NewDocumentFromReader(strings.NewReader(c))
			if err != nil {
				continue
			}
			if sel := inner.Find(tableSelector(id)).First(); sel.Length() > 0 {
				return parseTable(id, sel), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTableNotFound, id)
}

// ListTableIDs returns the sorted ids of every table on the page, including
// commented-out tables and div_* wrappers.
func ListTableIDs(page string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}
	ids := map[string]struct{}{}
	collectIDs(doc.Selection, ids)
	for _, n := range doc.Nodes {
		for _, c := range comments(n) {
			if !strings.Contains(c, "<table") && !strings.Contains(c, "div_") {
				continue
			}
			if inner, err := goquery.NewDocumentFromReader(strings.NewReader(c)); err == nil {
				collectIDs(inner.Selection, ids)
			}
		}
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func collectIDs(s *goquery.Selection, ids map[string]struct{}) {
	s.Find(`div[id^="div_"]`).Each(func(_ int, d *goquery.Selection) {
		if id := strings.TrimPrefix(d.AttrOr("id", ""), "div_"); id != "" {
			ids[id] = struct{}{}
		}
	})
	s.Find("table[id]").Each(func(_ int, t *goquery.Selection) {
		if id := t.AttrOr("id", ""); id != "" {
			ids[id] = struct{}{}
		}
	})
}

func tableSelector(id string) string { return fmt.Sprintf(`table[id=%q]`, id) }

// comments returns the text of every comment node under n, in document order.
func comments(n *html.Node) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode {
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// -------------------- header flattening --------------------

func parseTable(id string, table *goquery.Selection) *Table {
	t := &Table{ID: id}

	var levels [][]string
	table.Find("thead tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			span, _ := strconv.Atoi(cell.AttrOr("colspan", "1"))
			if span < 1 {
				span = 1
			}
			txt := cleanText(cell.Text())
			for k := 0; k < span; k++ {
				row = append(row, txt)
			}
		})
		levels = append(levels, row)
	})

	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		rows = table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
			return tr.ParentsFiltered("thead").Length() == 0
		})
	}
	rows.Each(func(_ int, tr *goquery.Selection) {
		cls := tr.AttrOr("class", "")
		if strings.Contains(cls, "thead") || strings.Contains(cls, "over_header") {
			return
		}
		var row []Cell
		tr.Children().Each(func(_ int, cell *goquery.Selection) {
			c := Cell{
				Text:      cleanText(cell.Text()),
				Stat:      cell.AttrOr("data-stat", ""),
				AppendCSV: strings.TrimSpace(cell.AttrOr("data-append-csv", "")),
				Header:    goquery.NodeName(cell) == "th",
			}
			if href, ok := cell.Find("a").First().Attr("href"); ok {
				c.Href = href
			}
			row = append(row, c)
		})
		if len(row) > 0 {
			t.Rows = append(t.Rows, row)
		}
	})

	width := 0
	for _, l := range levels {
		width = max(width, len(l))
	}
	if width == 0 && len(t.Rows) > 0 {
		width = len(t.Rows[0])
	}
	t.Columns = FlattenHeaders(levels, width)
	return t
}

// FlattenHeaders joins multi-level header rows into one name per column:
// levels joined with "_", blank and "Unnamed" levels dropped, empty names
// become col_{idx}, and repeats get _1, _2 suffixes.
func FlattenHeaders(levels [][]string, width int) []string {
	names := make([]string, width)
	for j := 0; j < width; j++ {
		var parts []string
		for _, l := range levels {
			if j >= len(l) {
				continue
			}
			p := strings.TrimSpace(l[j])
			if p == "" || strings.HasPrefix(p, "Unnamed") {
				continue
			}
			parts = append(parts, p)
		}
		names[j] = strings.Join(parts, "_")
	}

	seen := map[string]int{}
	for j, n := range names {
		if n == "" {
			n = fmt.Sprintf("col_%d", j)
		}
		if k, dup := seen[n]; dup {
			seen[n] = k + 1
			n = fmt.Sprintf("%s_%d", n, k+1)
		} else {
			seen[n] = 0
		}
		names[j] = n
	}
	return names
}
