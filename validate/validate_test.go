package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hazyhaar/gridsnap/fixture"
	"github.com/hazyhaar/gridsnap/snapshot"
)

func rec(kv ...string) snapshot.Record {
	r := snapshot.Record{}
	for i := 0; i+1 < len(kv); i += 2 {
		r[kv[i]] = kv[i+1]
	}
	return r
}

func asMismatch(t *testing.T, err error) *MismatchError {
	t.Helper()
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want *MismatchError", err)
	}
	return me
}

func TestExactOrder(t *testing.T) {
	a := rec("Make", "Ford", "Price", "1")
	b := rec("Make", "BMW", "Price", "2")

	if err := ExactOrder([]snapshot.Record{a, b}, []snapshot.Record{a, b}); err != nil {
		t.Errorf("equal rows: %v", err)
	}
	if err := ExactOrder(nil, []snapshot.Record{}); err != nil {
		t.Errorf("nil vs empty: %v", err)
	}

	err := ExactOrder([]snapshot.Record{b, a}, []snapshot.Record{a, b})
	me := asMismatch(t, err)
	if me.Check != CheckExactOrder || me.Page != -1 {
		t.Errorf("got check %q page %d", me.Check, me.Page)
	}
	if me.Diff == "" {
		t.Error("Diff is empty")
	}
	if len(me.Expected) != 2 || len(me.Actual) != 2 {
		t.Errorf("payloads not carried: %+v", me)
	}

	if err := ExactOrder([]snapshot.Record{a}, []snapshot.Record{a, b}); err == nil {
		t.Error("missing row: expected error")
	}
}

func TestSubset(t *testing.T) {
	a := rec("Make", "Ford")
	b := rec("Make", "BMW")
	c := rec("Make", "Kia")

	if err := Subset([]snapshot.Record{c, b, a}, []snapshot.Record{a, b}); err != nil {
		t.Errorf("reordered superset: %v", err)
	}
	if err := Subset([]snapshot.Record{a}, nil); err != nil {
		t.Errorf("empty expectation: %v", err)
	}

	err := Subset([]snapshot.Record{a, b}, []snapshot.Record{a, c})
	me := asMismatch(t, err)
	if me.Check != CheckSubset {
		t.Errorf("check = %q, want %q", me.Check, CheckSubset)
	}
	if len(me.Missing) != 1 || me.Missing[0]["Make"] != "Kia" {
		t.Errorf("Missing = %v, want [Kia]", me.Missing)
	}
	if !strings.Contains(err.Error(), "1 missing") {
		t.Errorf("error text %q lacks missing count", err)
	}

	// Extra columns in the actual record make it a different record.
	if err := Subset([]snapshot.Record{rec("Make", "Ford", "Year", "2020")}, []snapshot.Record{a}); err == nil {
		t.Error("record with extra column matched: expected error")
	}
}

func TestEmpty(t *testing.T) {
	if err := Empty(nil); err != nil {
		t.Errorf("nil: %v", err)
	}
	if err := Empty([]snapshot.Record{}); err != nil {
		t.Errorf("empty: %v", err)
	}
	me := asMismatch(t, Empty([]snapshot.Record{rec("A", "1")}))
	if me.Check != CheckEmpty {
		t.Errorf("check = %q, want %q", me.Check, CheckEmpty)
	}
}

// fakePager pages through a fixed dataset.
type fakePager struct {
	pages   [][]snapshot.Record
	current int
	reads   int
	nexts   int
	readErr error
}

func (p *fakePager) ReadData(_ context.Context, opts snapshot.Options) ([]snapshot.Record, error) {
	p.reads++
	if p.readErr != nil {
		return nil, p.readErr
	}
	if p.current >= len(p.pages) {
		return []snapshot.Record{}, nil
	}
	out := make([]snapshot.Record, 0, len(p.pages[p.current]))
	for _, r := range p.pages[p.current] {
		if len(opts.OnlyColumns) == 0 {
			out = append(out, r)
			continue
		}
		kept := snapshot.Record{}
		for _, h := range opts.OnlyColumns {
			if v, ok := r[h]; ok {
				kept[h] = v
			}
		}
		out = append(out, kept)
	}
	return out, nil
}

func (p *fakePager) NextPage(context.Context) error {
	p.nexts++
	if p.current < len(p.pages)-1 {
		p.current++
	}
	return nil
}

func TestPaginatedTable(t *testing.T) {
	ctx := context.Background()
	cars := fixture.Cars()

	p := &fakePager{pages: fixture.Pages(cars)}
	if err := PaginatedTable(ctx, p, fixture.Pages(cars), snapshot.Options{}); err != nil {
		t.Fatalf("all pages: %v", err)
	}
	if p.reads != 4 || p.nexts != 4 {
		t.Errorf("reads=%d nexts=%d, want 4 and 4", p.reads, p.nexts)
	}

	only := []string{"Year", "Make", "Model"}
	p = &fakePager{pages: fixture.Pages(cars)}
	if err := PaginatedTable(ctx, p, fixture.Pages(cars, only...), snapshot.Options{OnlyColumns: only}); err != nil {
		t.Fatalf("restricted columns: %v", err)
	}
}

func TestPaginatedTable_StopsAtFirstMismatch(t *testing.T) {
	ctx := context.Background()
	expected := fixture.Pages(fixture.Cars())
	expected[1] = append(expected[1], rec("Make", "DeLorean"))

	p := &fakePager{pages: fixture.Pages(fixture.Cars())}
	err := PaginatedTable(ctx, p, expected, snapshot.Options{})
	me := asMismatch(t, err)
	if me.Page != 1 {
		t.Errorf("Page = %d, want 1", me.Page)
	}
	if !strings.Contains(err.Error(), "on page 2") {
		t.Errorf("error text %q lacks page", err)
	}
	if p.reads != 2 || p.nexts != 1 {
		t.Errorf("reads=%d nexts=%d, want 2 and 1", p.reads, p.nexts)
	}
	if p.current != 1 {
		t.Errorf("pager moved back to %d", p.current)
	}
}

func TestPaginatedTable_ReadError(t *testing.T) {
	boom := errors.New("boom")
	p := &fakePager{readErr: boom}
	err := PaginatedTable(context.Background(), p, fixture.Pages(fixture.Cars()), snapshot.Options{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}
