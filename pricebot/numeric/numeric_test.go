package numeric

import (
	"slices"
	"testing"
)

func TestParseBoth(t *testing.T) {
	n, ok := Parse("2", ModeBoth)
	if !ok || !n.IsInt || n.Int != 2 {
		t.Fatalf("Parse(2, both) = %+v, %v; want integer 2", n, ok)
	}

	n, ok = Parse("2.3", ModeBoth)
	if !ok || n.IsInt || n.Float != 2.3 {
		t.Fatalf("Parse(2.3, both) = %+v, %v; want float 2.3", n, ok)
	}

	n, ok = Parse("2.0", ModeBoth)
	if !ok || !n.IsInt || n.Int != 2 {
		t.Fatalf("Parse(2.0, both) = %+v, %v; want integer 2", n, ok)
	}

	if _, ok := Parse("a", ModeBoth); ok {
		t.Fatal("Parse(a, both) should report no value")
	}
}

func TestParseInt(t *testing.T) {
	n, ok := Parse("2.3", ModeInt)
	if !ok || !n.IsInt || n.Int != 2 {
		t.Fatalf("Parse(2.3, int) = %+v, %v; want integer 2", n, ok)
	}
	n, ok = Parse("-2.7", ModeInt)
	if !ok || n.Int != -2 {
		t.Fatalf("Parse(-2.7, int) = %+v, %v; want -2", n, ok)
	}
	if _, ok := Parse("inf", ModeInt); ok {
		t.Fatal("Parse(inf, int) should report no value")
	}
}

func TestParseFloat(t *testing.T) {
	n, ok := Parse("2", ModeFloat)
	if !ok || n.IsInt || n.Float != 2 {
		t.Fatalf("Parse(2, float) = %+v, %v; want float 2", n, ok)
	}
}

func TestParseUnknownModeFallsBackToBoth(t *testing.T) {
	n, ok := Parse("4", Mode(42))
	if !ok || !n.IsInt || n.Int != 4 {
		t.Fatalf("Parse(4, 42) = %+v, %v; want integer 4", n, ok)
	}
	n, ok = Parse("inf", Mode(42))
	if !ok || n.IsInt {
		t.Fatalf("Parse(inf, 42) = %+v, %v; want float", n, ok)
	}
}

func TestNumberString(t *testing.T) {
	if got := IntNumber(3).String(); got != "3" {
		t.Fatalf("IntNumber(3).String() = %q", got)
	}
	if got := FloatNumber(1.5).String(); got != "1.5" {
		t.Fatalf("FloatNumber(1.5).String() = %q", got)
	}
}

func TestDecimals(t *testing.T) {
	cases := map[string]int{"1.5": 1, "2": 0, "0.125": 3, " 3.10 ": 2, "1e-3": 0, "abc": 0}
	for in, want := range cases {
		if got := Decimals(in); got != want {
			t.Fatalf("Decimals(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestPrefixes(t *testing.T) {
	got := slices.Collect(Prefixes("Examples"))
	want := []string{"Examples", "Example", "Exampl", "Examp", "Exam", "Exa", "Ex", "E"}
	if !slices.Equal(got, want) {
		t.Fatalf("Prefixes(Examples) = %v, want %v", got, want)
	}
}

func TestPrefixesMultibyte(t *testing.T) {
	got := slices.Collect(Prefixes("牛乳パック"))
	want := []string{"牛乳パック", "牛乳パッ", "牛乳パ", "牛乳", "牛"}
	if !slices.Equal(got, want) {
		t.Fatalf("Prefixes = %v, want %v", got, want)
	}
	if n := len(slices.Collect(Prefixes(""))); n != 0 {
		t.Fatalf("Prefixes(\"\") yielded %d values", n)
	}
}

func TestPrefixesStopsEarly(t *testing.T) {
	var seen []string
	for p := range Prefixes("abcd") {
		seen = append(seen, p)
		if p == "abc" {
			break
		}
	}
	if !slices.Equal(seen, []string{"abcd", "abc"}) {
		t.Fatalf("early stop yielded %v", seen)
	}
}
