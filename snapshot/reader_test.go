package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/gridsnap/dom"
)

// gridHTML assembles ag-Grid-shaped markup. Each region is a list of rows,
// each row "index|cell@col|cell@col". An index of "-" omits the attribute.
func gridHTML(headers []string, left, center, right []string, extra string) string {
	var b strings.Builder
	b.WriteString(`<div id="wrap"><div class="ag-root">`)
	b.WriteString(`<div class="ag-header-row ag-header-row-column">`)
	for i, h := range headers {
		fmt.Fprintf(&b, `<div class="ag-header-cell" aria-colindex="%d"><span class="ag-header-cell-text"> %s </span></div>`, i+1, h)
	}
	b.WriteString(`</div>`)
	region := func(class string, rows []string) {
		fmt.Fprintf(&b, `<div class="%s">`, class)
		for _, r := range rows {
			parts := strings.Split(r, "|")
			if parts[0] == "-" {
				b.WriteString(`<div class="ag-row">`)
			} else {
				fmt.Fprintf(&b, `<div class="ag-row" row-index="%s">`, parts[0])
			}
			for _, c := range parts[1:] {
				text, col, _ := strings.Cut(c, "@")
				if col == "" {
					fmt.Fprintf(&b, `<div class="ag-cell">%s</div>`, text)
				} else {
					fmt.Fprintf(&b, `<div class="ag-cell" aria-colindex="%s">%s</div>`, col, text)
				}
			}
			b.WriteString(`</div>`)
		}
		b.WriteString(`</div>`)
	}
	region("ag-pinned-left-cols-container", left)
	region("ag-center-cols-container", center)
	region("ag-pinned-right-cols-container", right)
	b.WriteString(extra)
	b.WriteString(`</div></div>`)
	return b.String()
}

func read(t *testing.T, markup string, opts Options) *Snapshot {
	t.Helper()
	root, err := dom.ParseHTMLString(markup)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := NewReader(Config{}).Read(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return snap
}

var carHeaders = []string{"Year", "Make", "Model", "Price"}

func TestRead_StitchesPinnedRegionsByRowIndex(t *testing.T) {
	markup := gridHTML(carHeaders,
		[]string{"1|2021@1|Ford@2", "0|2020@1|Toyota@2", "2|2022@1|Kia@2"},
		[]string{"0|Celica@3", "2|Soul@3", "1|Mustang@3"},
		[]string{"2|15000@4", "0|35000@4", "1|27000@4"},
		"")
	snap := read(t, markup, Options{})

	want := []Record{
		{"Year": "2020", "Make": "Toyota", "Model": "Celica", "Price": "35000"},
		{"Year": "2021", "Make": "Ford", "Model": "Mustang", "Price": "27000"},
		{"Year": "2022", "Make": "Kia", "Model": "Soul", "Price": "15000"},
	}
	if diff := cmp.Diff(want, snap.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(carHeaders, snap.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if got := snap.Rows[0].Labels(); !cmp.Equal(got, carHeaders) {
		t.Errorf("label order = %v, want %v", got, carHeaders)
	}
}

func TestRead_RowAbsentFromOneRegionDoesNotShiftOthers(t *testing.T) {
	// Row 1 is being destroyed in the center region.
	markup := gridHTML(carHeaders,
		[]string{"0|2020@1|Toyota@2", "1|2021@1|Ford@2", "2|2022@1|Kia@2"},
		[]string{"0|Celica@3", "2|Soul@3"},
		[]string{"0|35000@4", "1|27000@4", "2|15000@4"},
		"")
	snap := read(t, markup, Options{})
	if snap.Len() != 3 {
		t.Fatalf("rows = %d, want 3", snap.Len())
	}
	want := []Record{
		{"Year": "2020", "Make": "Toyota", "Model": "Celica", "Price": "35000"},
		{"Year": "2021", "Make": "Ford", "Price": "27000"},
		{"Year": "2022", "Make": "Kia", "Model": "Soul", "Price": "15000"},
	}
	if diff := cmp.Diff(want, snap.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	if got := snap.Rows[1].Labels(); !cmp.Equal(got, []string{"Year", "Make", "Price"}) {
		t.Errorf("row 1 labels = %v", got)
	}
	v := snap.Values()
	if diff := cmp.Diff([]string{"2021", "Ford", "", "27000"}, v.Rows[1]); diff != "" {
		t.Errorf("row 1 values mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_LeftRegionMissingKeepsColumns(t *testing.T) {
	markup := gridHTML(carHeaders,
		[]string{"0|2020@1|Toyota@2"},
		[]string{"0|Celica@3", "1|Mustang@3"},
		[]string{"0|35000@4", "1|27000@4"},
		"")
	snap := read(t, markup, Options{})
	want := Record{"Model": "Mustang", "Price": "27000"}
	if diff := cmp.Diff(want, snap.Records()[1]); diff != "" {
		t.Errorf("row 1 mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_EmptySlotsDroppedAndSparseIndexes(t *testing.T) {
	markup := gridHTML([]string{"Year"},
		nil,
		[]string{"40|b@1", "7|a@1"},
		nil,
		"")
	snap := read(t, markup, Options{})
	want := []Record{{"Year": "a"}, {"Year": "b"}}
	if diff := cmp.Diff(want, snap.Records()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_HiddenRegionAndSkippedRows(t *testing.T) {
	markup := `<div class="ag-root">
	<div class="ag-header-row-column"><div aria-colindex="1"><span class="ag-header-cell-text">A</span></div></div>
	<div class="ag-pinned-left-cols-container ag-hidden">
	  <div class="ag-row" row-index="0"><div class="ag-cell" aria-colindex="1">ghost</div></div>
	</div>
	<div class="ag-center-cols-container">
	  <div class="ag-row ag-opacity-zero" row-index="0"><div class="ag-cell" aria-colindex="1">fading</div></div>
	  <div class="ag-row ag-hidden" row-index="1"><div class="ag-cell" aria-colindex="1">hidden</div></div>
	  <div class="ag-row" row-index="2"><div class="ag-cell" aria-colindex="1">kept</div></div>
	  <div class="ag-row" row-index="n/a"><div class="ag-cell" aria-colindex="1">no index</div></div>
	</div>
	</div>`
	snap := read(t, markup, Options{})
	want := []Record{{"A": "kept"}}
	if diff := cmp.Diff(want, snap.Records()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_OnlyColumns(t *testing.T) {
	markup := gridHTML(carHeaders,
		[]string{"0|2020@1|Toyota@2"},
		[]string{"0|Celica@3"},
		[]string{"0|35000@4"},
		"")
	snap := read(t, markup, Options{OnlyColumns: []string{"Price", "Make", "Nope"}})

	if diff := cmp.Diff([]Record{{"Make": "Toyota", "Price": "35000"}}, snap.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	v := snap.Values()
	wantValues := Values{Headers: []string{"Make", "Price"}, Rows: [][]string{{"Toyota", "35000"}}}
	if diff := cmp.Diff(wantValues, v); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_DuplicateLabelOverwritesInPlace(t *testing.T) {
	markup := gridHTML([]string{"A", "B", "A"},
		nil,
		[]string{"0|first@1|mid@2|last@3"},
		nil,
		"")
	snap := read(t, markup, Options{})
	row := snap.Rows[0]
	if diff := cmp.Diff([]string{"A", "B"}, row.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
	if c, _ := row.Get("A"); c.Text != "last" {
		t.Errorf("A = %q, want last", c.Text)
	}
	if diff := cmp.Diff([]string{"A", "B"}, snap.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_ValuesKeepRepeatedLabels(t *testing.T) {
	markup := gridHTML([]string{"A", "B", "A"},
		nil,
		[]string{"0|first@1|mid@2|last@3"},
		nil,
		"")
	want := Values{Headers: []string{"A", "B", "A"}, Rows: [][]string{{"first", "mid", "last"}}}
	if diff := cmp.Diff(want, read(t, markup, Options{}).Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	only := Values{Headers: []string{"A", "A"}, Rows: [][]string{{"first", "last"}}}
	if diff := cmp.Diff(only, read(t, markup, Options{OnlyColumns: []string{"A"}}).Values()); diff != "" {
		t.Errorf("only A mismatch (-want +got):\n%s", diff)
	}
}

func TestValues_HandBuiltSnapshot(t *testing.T) {
	snap := &Snapshot{
		Headers: []string{"A", "B"},
		Rows:    []Row{{{Label: "B", Text: "b"}}},
	}
	want := Values{Headers: []string{"A", "B"}, Rows: [][]string{{"", "b"}}}
	if diff := cmp.Diff(want, snap.Values()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_ExtraCellsPastHeadersDropped(t *testing.T) {
	markup := gridHTML([]string{"A"},
		nil,
		[]string{"0|x@1|y@2"},
		nil,
		"")
	snap := read(t, markup, Options{})
	if diff := cmp.Diff([]Record{{"A": "x"}}, snap.Records()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_CellsWithoutColumnIndexKeepDOMOrder(t *testing.T) {
	markup := gridHTML([]string{"A", "B", "C"},
		[]string{"0|one"},
		[]string{"0|two|three"},
		nil,
		"")
	snap := read(t, markup, Options{})
	want := []Record{{"A": "one", "B": "two", "C": "three"}}
	if diff := cmp.Diff(want, snap.Records()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_HeaderWithoutLabelElementUsesOwnText(t *testing.T) {
	markup := `<div class="ag-root">
	<div class="ag-header-row-column">
	  <div aria-colindex="2"> Second </div>
	  <div aria-colindex="1"><span class="ag-header-cell-text">First</span></div>
	</div>
	<div class="ag-center-cols-container">
	  <div class="ag-row" row-index="0"><div class="ag-cell" aria-colindex="2">2</div><div class="ag-cell" aria-colindex="1">1</div></div>
	</div></div>`
	snap := read(t, markup, Options{})
	if diff := cmp.Diff([]string{"First", "Second"}, snap.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Record{{"First": "1", "Second": "2"}}, snap.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_ReturnElements(t *testing.T) {
	markup := gridHTML([]string{"A"}, nil, []string{"0|x@1"}, nil, "")
	snap := read(t, markup, Options{ReturnElements: true})
	c, ok := snap.Rows[0].Get("A")
	if !ok || c.Node == nil {
		t.Fatal("cell node missing")
	}
	if c.Text != "" {
		t.Errorf("Text = %q, want empty with ReturnElements", c.Text)
	}
	if c.Col != 1 {
		t.Errorf("Col = %d, want 1", c.Col)
	}
	text, err := dom.TrimmedText(context.Background(), c.Node)
	if err != nil || text != "x" {
		t.Errorf("node text = %q, %v", text, err)
	}
}

func TestRead_MalformedMarkupIsEmpty(t *testing.T) {
	for name, markup := range map[string]string{
		"no root":    `<div class="grid"><div class="ag-row" row-index="0">x</div></div>`,
		"no regions": `<div class="ag-root"><div class="ag-header-row-column"><div aria-colindex="1">A</div></div></div>`,
		"empty":      ``,
	} {
		t.Run(name, func(t *testing.T) {
			snap := read(t, markup, Options{})
			if snap.Len() != 0 {
				t.Errorf("rows = %d, want 0", snap.Len())
			}
			if recs := snap.Records(); recs == nil || len(recs) != 0 {
				t.Errorf("Records() = %#v, want empty non-nil", recs)
			}
		})
	}
}

func TestRead_Idempotent(t *testing.T) {
	markup := gridHTML(carHeaders,
		[]string{"0|2020@1|Toyota@2"},
		[]string{"0|Celica@3"},
		[]string{"0|35000@4"},
		"")
	a := read(t, markup, Options{}).Records()
	b := read(t, markup, Options{}).Records()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two reads differ (-first +second):\n%s", diff)
	}
}

type settlingNode struct {
	dom.Node
	err   error
	block bool
}

func (s settlingNode) Settle(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.err
}

func TestRead_Settle(t *testing.T) {
	root, err := dom.ParseHTMLString(gridHTML([]string{"A"}, nil, []string{"0|x@1"}, nil, ""))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	r := NewReader(Config{SettleTimeout: 20 * time.Millisecond})
	if _, err := r.Read(ctx, settlingNode{Node: root, block: true}, Options{}); !errors.Is(err, ErrSettleTimeout) {
		t.Errorf("blocked settle: err = %v, want ErrSettleTimeout", err)
	}

	boom := errors.New("boom")
	if _, err := r.Read(ctx, settlingNode{Node: root, err: boom}, Options{}); !errors.Is(err, boom) {
		t.Errorf("failing settle: err = %v, want wrapped boom", err)
	}

	snap, err := r.Read(ctx, settlingNode{Node: root}, Options{})
	if err != nil || snap.Len() != 1 {
		t.Errorf("settled read = %v, %v", snap, err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := r.Read(cancelled, settlingNode{Node: root, block: true}, Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled ctx: err = %v, want context.Canceled", err)
	}
}

func TestLayoutDefaults(t *testing.T) {
	r := NewReader(Config{Layout: Layout{Row: ".my-row"}})
	l := r.Layout()
	if l.Row != ".my-row" {
		t.Errorf("Row = %q, want override kept", l.Row)
	}
	if diff := cmp.Diff(DefaultLayout().Regions, l.Regions); diff != "" {
		t.Errorf("regions mismatch (-want +got):\n%s", diff)
	}
}
