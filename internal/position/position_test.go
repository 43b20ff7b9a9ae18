package position

import "testing"

func TestCanonicalize_Synonyms(t *testing.T) {
	cases := map[string]Code{
		"qb":   QB,
		" HB ": RB,
		"saf":  S,
		"T":    OT,
		"g":    OG,
		"C":    OC,
		"edge": EDGE,
		"FBK":  FB,
	}
	for in, want := range cases {
		got, ok := Canonicalize(in)
		if !ok || got != want {
			t.Fatalf("Canonicalize(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
}

func TestCanonicalize_UnknownIsNotAnError(t *testing.T) {
	for _, in := range []string{"", "   ", "QUARTERBACK", "WR/TE", "XYZ"} {
		if c, ok := Canonicalize(in); ok {
			t.Fatalf("Canonicalize(%q) = %q, want no canonical code", in, c)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for code, names := range aliases {
		for _, a := range names {
			first, ok := Canonicalize(a)
			if !ok {
				continue
			}
			again, ok2 := Canonicalize(string(first))
			if !ok2 || again != first {
				t.Fatalf("alias %q (%s): re-canonicalize %q -> %q,%v", a, code, first, again, ok2)
			}
		}
	}
}

func TestBuildAliasLookup_OnlyPresentCodes(t *testing.T) {
	m := BuildAliasLookup([]Code{QB, ILB})

	if c, ok := Lookup(m, "quarterback"); !ok || c != QB {
		t.Fatalf("quarterback -> %q,%v", c, ok)
	}
	if c, ok := Lookup(m, "Middle Linebacker"); !ok || c != ILB {
		t.Fatalf("middle linebacker -> %q,%v", c, ok)
	}
	if c, ok := Lookup(m, "qb"); !ok || c != QB {
		t.Fatalf("self map qb -> %q,%v", c, ok)
	}
	if _, ok := Lookup(m, "wide receiver"); ok {
		t.Fatalf("WR is not present and must not resolve")
	}
}

func TestMatchesAndGroup(t *testing.T) {
	allow := ParseList("DE, lb ,bogus")
	if len(allow) != 2 {
		t.Fatalf("ParseList len=%d want 2", len(allow))
	}
	if !Matches(allow, "DT,DE") {
		t.Fatalf("expected DT,DE to match DE")
	}
	if Matches(allow, "CB") {
		t.Fatalf("CB must not match")
	}
	if Group(CB) != GroupDefenseCoverage || Group("ZZ") != "" {
		t.Fatalf("unexpected groups")
	}
}
