package table

import (
	"errors"
	"math"
	"testing"
)

func TestNewValidatesColumns(t *testing.T) {
	cases := []struct {
		name string
		cols []Column
	}{
		{"empty name", []Column{{Name: " ", Values: []Value{Num(1)}}}},
		{"duplicate", []Column{{Name: "a", Values: []Value{Num(1)}}, {Name: "a", Values: []Value{Num(2)}}}},
		{"length mismatch", []Column{{Name: "a", Values: []Value{Num(1)}}, {Name: "b"}}},
	}
	for _, tc := range cases {
		_, err := New(tc.cols...)
		var ie *InputError
		if !errors.As(err, &ie) || !errors.Is(err, ErrInput) {
			t.Errorf("%s: err = %v, want *InputError", tc.name, err)
		}
	}
}

func TestFromRecordsNamesAndPadding(t *testing.T) {
	header := []string{"\ufeffid", "", "id", "x"}
	rows := [][]string{{"1", "a", "b"}, {"2", "NA", "c", "d", "extra"}}
	tbl, err := FromRecords(header, rows, DefaultMissing())
	if err != nil {
		t.Fatalf("FromRecords: %v", err)
	}
	want := []string{"id", "column_2", "id_2", "x"}
	for i, n := range tbl.Names() {
		if n != want[i] {
			t.Fatalf("names = %#v, want %#v", tbl.Names(), want)
		}
	}
	x, _ := tbl.Column("x")
	if !x.Values[0].IsMissing() || x.Values[1].Str != "d" {
		t.Fatalf("x = %#v", x.Values)
	}
	c2, _ := tbl.Column("column_2")
	if !c2.Values[1].IsMissing() {
		t.Fatalf("NA not mapped to missing")
	}
}

func TestFromRecordsSuffixSkipsTakenNames(t *testing.T) {
	cases := []struct {
		header []string
		want   []string
	}{
		{[]string{"a_2", "a", "a"}, []string{"a_2", "a", "a_3"}},
		{[]string{"a", "a", "a_2"}, []string{"a", "a_3", "a_2"}},
		{[]string{"b", "b", "b"}, []string{"b", "b_2", "b_3"}},
	}
	for _, tc := range cases {
		tbl, err := FromRecords(tc.header, [][]string{{"1", "2", "3"}}, DefaultMissing())
		if err != nil {
			t.Fatalf("FromRecords(%v): %v", tc.header, err)
		}
		for i, n := range tbl.Names() {
			if n != tc.want[i] {
				t.Fatalf("FromRecords(%v) names = %v, want %v", tc.header, tbl.Names(), tc.want)
			}
		}
	}
}

func TestWithColumnAndRowsDoNotMutate(t *testing.T) {
	orig := MustNew(
		Column{Name: "a", Values: []Value{Str("1"), Str("2"), Str("3")}},
		Column{Name: "b", Values: []Value{Str("x"), Str("y"), Missing()}},
	)
	next, err := orig.WithColumn(Column{Name: "a", Values: []Value{Num(1), Num(2), Num(3)}})
	if err != nil {
		t.Fatalf("WithColumn: %v", err)
	}
	a, _ := orig.Column("a")
	if a.Values[0].Kind != KindString {
		t.Fatalf("receiver mutated: %#v", a.Values[0])
	}
	na, _ := next.Column("a")
	if na.Values[2].Num != 3 {
		t.Fatalf("replacement not applied")
	}
	if _, err := orig.WithColumn(Column{Name: "zzz"}); err == nil {
		t.Fatalf("expected error for unknown column")
	}

	sub := orig.Rows([]int{2, 0})
	if sub.NumRows() != 2 {
		t.Fatalf("rows = %d", sub.NumRows())
	}
	b, _ := sub.Column("b")
	if !b.Values[0].IsMissing() || b.Values[1].Str != "x" {
		t.Fatalf("b = %#v", b.Values)
	}
	if orig.Equal(next) || !orig.Equal(orig.Rows([]int{0, 1, 2})) {
		t.Fatalf("Equal misreports")
	}
	if h := orig.Head(10); len(h) != 3 || h[2][1] != "" {
		t.Fatalf("head = %#v", h)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{"-3.5", -3.5, true},
		{"1e3", 1000, true},
		{"0,5", 0.5, true},
		{"1,000", 1000, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"45%", 45, true},
		{"$1,200", 1200, true},
		{"€ 3,50", 3.5, true},
		{"(12.50)", -12.5, true},
		{"1 234", 1234, true},
		{"1 234 567,5", 1234567.5, true},
		{"-12 345.25", -12345.25, true},
		{"3 4", 0, false},
		{"12 34", 0, false},
		{"1234 567", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"12abc", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, NumberFormat{})
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	got, ok := ParseNumber("1.000", NumberFormat{Decimal: ',', Thousands: '.'})
	if !ok || got != 1000 {
		t.Errorf("pinned format = %v, %v", got, ok)
	}
	if got, ok := ParseNumber("12 500,75", NumberFormat{Decimal: ',', Thousands: ' '}); !ok || got != 12500.75 {
		t.Errorf("pinned space format = %v, %v", got, ok)
	}
	if _, ok := ParseNumber("12 34", NumberFormat{Decimal: ',', Thousands: ' '}); ok {
		t.Errorf("pinned space format accepted a broken group")
	}
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2024-01-31", "2024-01-31T10:00:00Z", "1/31/2024", "Jan 2, 2006", "2024-01-31 08:15"} {
		if _, ok := ParseTime(s); !ok {
			t.Errorf("ParseTime(%q) failed", s)
		}
	}
	for _, s := range []string{"20240131", "12", "hello", ""} {
		if _, ok := ParseTime(s); ok {
			t.Errorf("ParseTime(%q) should fail", s)
		}
	}
}

func TestValueBasics(t *testing.T) {
	if !Num(math.NaN()).IsMissing() {
		t.Fatalf("NaN should be missing")
	}
	if Num(2.5).String() != "2.5" || Num(3).String() != "3" {
		t.Fatalf("number rendering")
	}
	if !Missing().Equal(Missing()) || Str("1").Equal(Num(1)) {
		t.Fatalf("Equal semantics")
	}
	if f, ok := Str(" 7 ").Float(); !ok || f != 7 {
		t.Fatalf("string float = %v %v", f, ok)
	}
}
