package clean

import (
	"errors"
	"fmt"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

func genCol(name string, n int, f func(i int) string) table.Column {
	missing := table.DefaultMissing()
	vals := make([]table.Value, n)
	for i := range vals {
		vals[i] = missing.Cell(f(i))
	}
	return table.Column{Name: name, Values: vals}
}

func messyTable() *table.Table {
	n := 200
	price := func(i int) string {
		if i == 10 {
			return "unknown"
		}
		return fmt.Sprintf("%.1f", float64(i%40)+0.5)
	}
	sparse := func(letters string) func(int) string {
		return func(i int) string {
			if i%50 != 0 {
				return ""
			}
			return string(letters[i/50])
		}
	}
	city := func(i int) string { return []string{"Paris", "Lyon", "Nice", "Metz"}[i%4] }
	return table.MustNew(
		genCol("price", n, price),
		genCol("price_copy", n, price),
		genCol("city", n, city),
		genCol("flag", n, func(i int) string {
			if i == 3 {
				return "no"
			}
			return "yes"
		}),
		genCol("sparse", n, sparse("abcd")),
		genCol("sparse_copy", n, sparse("abcd")),
		genCol("hinted_sparse", n, sparse("wxyz")),
		genCol("y", n, city),
	)
}

func detectMessy(t *testing.T) (*table.Table, *detect.TypeMap) {
	t.Helper()
	tbl := messyTable()
	tm, err := detect.Detect(tbl, map[string]detect.ColumnType{"hinted_sparse": detect.Categorical}, "y", detect.DefaultConfig())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return tbl, tm
}

func TestCleanCoercesDirtyFloat(t *testing.T) {
	n := 1000
	col := genCol("reading", n, func(i int) string {
		if i == 999 {
			return "unknown"
		}
		return fmt.Sprintf("%.2f", float64(i%300)/4+0.1)
	})
	tbl := table.MustNew(col)
	tm, err := detect.Detect(tbl, nil, "", detect.DefaultConfig())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if ct, _ := tm.Type("reading"); ct != detect.DirtyFloat {
		t.Fatalf("reading = %s, want dirty_float", ct)
	}
	out, tm2, rep, err := Clean(tbl, tm, DefaultConfig())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if ct, _ := tm2.Type("reading"); ct != detect.Continuous {
		t.Fatalf("reading after clean = %s", ct)
	}
	c, _ := out.Column("reading")
	if c.MissingCount() != 1 {
		t.Fatalf("missing = %d, want 1", c.MissingCount())
	}
	for i, v := range c.Values {
		if !v.IsMissing() && v.Kind != table.KindNumber {
			t.Fatalf("row %d not numeric: %#v", i, v)
		}
	}
	acts := rep.For("reading")
	if len(acts) != 1 || acts[0].Kind != Coerced || acts[0].Coerced != 1 {
		t.Fatalf("actions = %#v", acts)
	}
	orig, _ := tbl.Column("reading")
	if orig.Values[0].Kind != table.KindString {
		t.Fatalf("input table mutated")
	}
	if ct, _ := tm.Type("reading"); ct != detect.DirtyFloat {
		t.Fatalf("input type map mutated")
	}
}

func TestCleanRulesAndExemptions(t *testing.T) {
	tbl, tm := detectMessy(t)
	_, out, rep, err := Clean(tbl, tm, DefaultConfig())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	want := map[string]detect.ColumnType{
		"price":         detect.Continuous,
		"price_copy":    detect.Useless,
		"city":          detect.Categorical,
		"flag":          detect.Categorical,
		"sparse":        detect.Useless,
		"sparse_copy":   detect.Useless,
		"hinted_sparse": detect.Categorical,
		"y":             detect.Target,
	}
	for name, ct := range want {
		if got, _ := out.Type(name); got != ct {
			t.Errorf("%s = %s (rule %s), want %s", name, got, out.Explain(name), ct)
		}
	}
	if out.Underlying("y") != detect.Categorical {
		t.Errorf("target underlying = %s", out.Underlying("y"))
	}

	dup := rep.For("price_copy")
	if len(dup) != 2 || dup[1].Kind != Duplicate || dup[1].DuplicateOf != "price" {
		t.Fatalf("price_copy actions = %#v", dup)
	}
	// Already useless after the missing rule, so never reported as duplicate.
	for _, a := range rep.For("sparse_copy") {
		if a.Kind == Duplicate {
			t.Fatalf("sparse_copy reported as duplicate: %#v", a)
		}
	}
	if rep.Count(Dropped) != 2 || rep.Count(Duplicate) != 1 || rep.Count(Coerced) != 2 {
		t.Fatalf("counts: dropped=%d duplicate=%d coerced=%d", rep.Count(Dropped), rep.Count(Duplicate), rep.Count(Coerced))
	}
	flag := rep.For("flag")
	if len(flag) != 1 || flag[0].Kind != NearConstant || flag[0].To != detect.Categorical {
		t.Fatalf("flag actions = %#v", flag)
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	tbl, tm := detectMessy(t)
	once, tm1, _, err := Clean(tbl, tm, DefaultConfig())
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	twice, tm2, rep, err := Clean(once, tm1, DefaultConfig())
	if err != nil {
		t.Fatalf("Clean twice: %v", err)
	}
	if rep.Changed() {
		t.Fatalf("second pass changed something: %#v", rep.Actions)
	}
	if !once.Equal(twice) || !tm1.Equal(tm2) {
		t.Fatalf("second pass altered table or type map")
	}
}

func TestCleanRejectsMismatchedTypeMap(t *testing.T) {
	tbl, _ := detectMessy(t)
	other, _ := detect.Detect(table.MustNew(genCol("z", 3, func(int) string { return "a" })), nil, "", detect.DefaultConfig())
	_, _, _, err := Clean(tbl, other, DefaultConfig())
	if !errors.Is(err, table.ErrInput) {
		t.Fatalf("err = %v, want input error", err)
	}
}

func TestCleanEmptyTable(t *testing.T) {
	tbl := table.MustNew()
	tm, _ := detect.Detect(tbl, nil, "", detect.DefaultConfig())
	out, tm2, rep, err := Clean(tbl, tm, DefaultConfig())
	if err != nil || out.NumCols() != 0 || tm2.Len() != 0 || len(rep.Actions) != 0 {
		t.Fatalf("empty: %v %d %d %d", err, out.NumCols(), tm2.Len(), len(rep.Actions))
	}
}
