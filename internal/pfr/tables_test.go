package pfr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

const snapPage = `<html><body>
<div id="all_snap_counts" class="table_wrapper">
<div class="placeholder"></div>
<!--
<div class="table_container" id="div_snap_counts">
<table id="snap_counts">
<thead>
<tr class="over_header"><th></th><th></th><th colspan="2">Off.</th><th colspan="2">Def.</th><th colspan="2">ST</th></tr>
<tr><th data-stat="player">Player</th><th>Pos</th><th>Num</th><th>Pct</th><th>Num</th><th>Pct</th><th>Num</th><th>Pct</th></tr>
</thead>
<tbody>
<tr><th data-stat="player" data-append-csv="LoveJo03"><a href="/players/L/LoveJo03.htm">Jordan Love</a></th><td>QB</td><td>1,105</td><td>100%</td><td>0</td><td>0%</td><td>3</td><td>1%</td></tr>
<tr><th data-stat="player"><a href="/players/C/CampDe00.htm">De'Vondre Campbell</a></th><td>LB</td><td>0</td><td>0%</td><td>812</td><td>79%</td><td>40</td><td>9%</td></tr>
<tr class="thead"><th>Player</th><td>Pos</td><td>Num</td><td>Pct</td><td>Num</td><td>Pct</td><td>Num</td><td>Pct</td></tr>
<tr><th data-stat="player">Team Total</th><td></td><td>1,105</td><td></td><td>1,020</td><td></td><td>420</td><td></td></tr>
</tbody>
</table>
</div>
-->
</div>
<table id="direct"><thead><tr><th>A</th><th></th><th>A</th></tr></thead><tbody><tr><td>1</td><td>2</td><td>3</td></tr></tbody></table>
</body></html>`

func TestReadTableByID_CommentedAndFlattened(t *testing.T) {
	tb, err := ReadTableByID(snapPage, "snap_counts")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"Player", "Pos", "Off._Num", "Off._Pct", "Def._Num", "Def._Pct", "ST_Num", "ST_Pct"}
	if !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("columns=%v", tb.Columns)
	}
	if len(tb.Rows) != 3 {
		t.Fatalf("rows=%d want 3 (thead row skipped)", len(tb.Rows))
	}
	f := tb.Frame()
	if f.Value(0, "Off._Num") != "1,105" {
		t.Fatalf("frame value %q", f.Value(0, "Off._Num"))
	}
}

func TestReadTableByID_DirectWithDuplicateHeaders(t *testing.T) {
	tb, err := ReadTableByID(snapPage, "direct")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"A", "col_1", "A_1"}
	if !reflect.DeepEqual(tb.Columns, want) {
		t.Fatalf("columns=%v", tb.Columns)
	}
}

func TestReadTableByID_NotFound(t *testing.T) {
	_, err := ReadTableByID(snapPage, "passing")
	if !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("want ErrTableNotFound, got %v", err)
	}
}

func TestListTableIDs(t *testing.T) {
	got := ListTableIDs(snapPage)
	want := []string{"direct", "snap_counts"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ids=%v", got)
	}
}

func TestFlattenHeaders_DropsUnnamed(t *testing.T) {
	got := FlattenHeaders([][]string{
		{"Unnamed: 0_level_0", "Passing", "Passing"},
		{"Year", "Yds", "TD"},
	}, 3)
	want := []string{"Year", "Passing_Yds", "Passing_TD"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestParseSnapCounts(t *testing.T) {
	tb, err := ReadTableByID(snapPage, SnapCountsTableID)
	if err != nil {
		t.Fatal(err)
	}
	got := ParseSnapCounts(tb)
	want := []SnapCount{
		{PfrID: "LoveJo03", Player: "Jordan Love", Position: "QB", Offense: 1105, Defense: 0, SpecialTeams: 3},
		{PfrID: "CampDe00", Player: "De'Vondre Campbell", Position: "LB", Offense: 0, Defense: 812, SpecialTeams: 40},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestFetchTeamSnapCounts(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(snapPage))
	}))
	defer srv.Close()
	c := testClient(srv)

	rows, err := c.FetchTeamSnapCounts(context.Background(), "GNB", 2023)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows=%d", len(rows))
	}
	if len(paths) != 1 || paths[0] != "/teams/gnb/2023-snap-counts.htm" {
		t.Fatalf("paths=%v", paths)
	}

	old, err := c.FetchTeamSnapCounts(context.Background(), "gnb", 2011)
	if err != nil || old != nil || len(paths) != 1 {
		t.Fatalf("pre-2012 seasons must not hit the network: %v %v %v", old, err, paths)
	}
}

const bioPage = `<html><body><div id="meta"><div>
<h1><span>T.J. Watt</span></h1>
<p><strong>Position</strong>: OLB &#9642; <strong>Throws:</strong> Right</p>
<p><strong>Born:</strong> <span itemprop="birthDate">October 11, 1994</span>
<span itemprop="birthPlace">in&nbsp;Pewaukee,&nbsp;WI&nbsp;<a href="/friv/birthplaces.cgi?country=USA&amp;state=WI"><span class="f-i f-us">us</span></a></span></p>
</div></div></body></html>`

func TestParseBio(t *testing.T) {
	got := ParseBio(bioPage, "WattTJ99")
	want := Bio{PfrID: "WattTJ99", Handedness: "Right", BirthCity: "Pewaukee", BirthState: "WI", BirthCountry: "USA"}
	if got != want {
		t.Fatalf("got %+v", got)
	}
}

func TestParseBio_MissingFieldsAreNA(t *testing.T) {
	got := ParseBio(`<html><div id="meta"><p>nothing here</p></div></html>`, "X00")
	if got != emptyBio("X00") {
		t.Fatalf("got %+v", got)
	}
}

func TestFetchPlayerBio_Path(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(bioPage))
	}))
	defer srv.Close()

	b, err := testClient(srv).FetchPlayerBio(context.Background(), "WattTJ99")
	if err != nil {
		t.Fatal(err)
	}
	if path != "/players/W/WattTJ99.htm" || b.BirthCity != "Pewaukee" {
		t.Fatalf("path=%q bio=%+v", path, b)
	}
}
