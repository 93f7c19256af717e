package fixture

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/gridsnap/dom"
	"github.com/hazyhaar/gridsnap/snapshot"
)

func readMarkup(t *testing.T, markup string) *snapshot.Snapshot {
	t.Helper()
	root, err := dom.ParseHTMLString(markup)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := snapshot.NewReader(snapshot.Config{}).Read(context.Background(), root, snapshot.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestPages(t *testing.T) {
	pages := Pages(Cars())
	var sizes []int
	for _, p := range pages {
		sizes = append(sizes, len(p))
	}
	if diff := cmp.Diff([]int{5, 5, 5, 4}, sizes); diff != "" {
		t.Errorf("page sizes (-want +got):\n%s", diff)
	}
	want := snapshot.Record{"Year": "2020", "Make": "Toyota", "Model": "Celica", "Condition": "fair", "Price": "35000"}
	if diff := cmp.Diff(want, pages[0][0]); diff != "" {
		t.Errorf("first record (-want +got):\n%s", diff)
	}

	only := Pages(Cars(), "Make", "Price")
	if diff := cmp.Diff(snapshot.Record{"Make": "BMW", "Price": "88001"}, only[3][3]); diff != "" {
		t.Errorf("restricted record (-want +got):\n%s", diff)
	}
}

func TestMarkup_EveryPageReadsBack(t *testing.T) {
	expected := Pages(Cars())
	for page := range expected {
		snap := readMarkup(t, Markup(View{Page: page}))
		if diff := cmp.Diff(expected[page], snap.Records()); diff != "" {
			t.Errorf("page %d (-want +got):\n%s", page, diff)
		}
	}
	snap := readMarkup(t, Markup(View{}))
	if diff := cmp.Diff([]string{"Year", "Make", "Model", "Condition", "Price"}, snap.Headers); diff != "" {
		t.Errorf("headers (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	for _, v := range []View{{}, {Page: 2, Sort: "year", Dir: DirDesc}, {Pins: map[string]string{"year": "none"}}} {
		got, err := Render(v)
		if err != nil {
			t.Fatalf("Render(%+v): %v", v, err)
		}
		if got != Markup(v) {
			t.Errorf("Render(%+v) differs from Markup", v)
		}
	}
}

func TestMarkup_PageClamped(t *testing.T) {
	if got, want := Markup(View{Page: 99}), Markup(View{Page: 3}); got != want {
		t.Error("page 99 should render the last page")
	}
	if got, want := Markup(View{Page: -1}), Markup(View{}); got != want {
		t.Error("page -1 should render the first page")
	}
}

func TestMarkup_Sort(t *testing.T) {
	snap := readMarkup(t, Markup(View{Sort: "year", Dir: DirAsc}))
	recs := snap.Records()
	if recs[0]["Year"] != "1990" || recs[1]["Year"] != "2011" {
		t.Errorf("ascending years start %q, %q; want 1990, 2011", recs[0]["Year"], recs[1]["Year"])
	}

	snap = readMarkup(t, Markup(View{Sort: "make", Dir: DirDesc}))
	if got := snap.Records()[0]["Make"]; got != "Toyota" {
		t.Errorf("descending make starts %q, want Toyota", got)
	}

	root, err := dom.ParseHTMLString(Markup(View{Sort: "model", Dir: DirAsc}))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	cell, err := dom.Query(ctx, root, `[col-id=model][aria-colindex]`)
	if err != nil || cell == nil {
		t.Fatalf("model header: %v", err)
	}
	if v, _, _ := cell.Attr(ctx, "aria-sort"); v != "ascending" {
		t.Errorf("aria-sort = %q, want ascending", v)
	}
	link, _ := dom.Query(ctx, cell, "a.ag-header-cell-text")
	href, _, _ := link.Attr(ctx, "href")
	u, err := url.Parse(href)
	if err != nil {
		t.Fatal(err)
	}
	if got := u.Query().Get("dir"); got != DirDesc {
		t.Errorf("next dir = %q, want desc", got)
	}
}

func TestMarkup_PriceNotSortable(t *testing.T) {
	root, _ := dom.ParseHTMLString(Markup(View{}))
	links, err := root.QueryAll(context.Background(), "[col-id=price] a")
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 0 {
		t.Errorf("price header has %d sort links, want 0", len(links))
	}
}

func TestMarkup_PinMovesColumnButKeepsRecords(t *testing.T) {
	v := View{Pins: map[string]string{"price": "left", "year": "none"}}
	snap := readMarkup(t, Markup(v))
	if diff := cmp.Diff([]string{"Make", "Price", "Year", "Model", "Condition"}, snap.Headers); diff != "" {
		t.Errorf("headers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Pages(Cars())[0], snap.Records()); diff != "" {
		t.Errorf("records (-want +got):\n%s", diff)
	}

	root, _ := dom.ParseHTMLString(Markup(View{Pins: map[string]string{"price": "none"}}))
	right, _ := dom.Query(context.Background(), root, ".ag-pinned-right-cols-container")
	if hidden, _ := dom.HasClass(context.Background(), right, "ag-hidden"); !hidden {
		t.Error("empty right region should be hidden")
	}
}

func TestViewQueryRoundTrip(t *testing.T) {
	v := View{Page: 2, Sort: "make", Dir: DirDesc, Pins: map[string]string{"price": "left"}}
	got := ParseView(v.Query())
	if diff := cmp.Diff(v, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	bad := ParseView(url.Values{"sort": {"make"}, "dir": {"sideways"}, "page": {"x"}})
	if bad.Sort != "" || bad.Dir != "" || bad.Page != 0 {
		t.Errorf("invalid query parsed as %+v", bad)
	}
}

func TestRouter(t *testing.T) {
	srv := httptest.NewServer(Router(nil))
	defer srv.Close()

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", "/demo/"},
		{"/grid?page=1", "text/html", "Page 2 of 4"},
		{"/data.json", "application/json", `"make":"Toyota"`},
		{"/demo/", "text/html", "ag-grid-enterprise"},
		{"/demo/grid-basic.js", "javascript", "paginationPageSize: 5"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d, body: %s", resp.StatusCode, body)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(string(body), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
			if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestRouter_DataJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	Router(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data.json", nil))
	var cars []Car
	if err := json.NewDecoder(rec.Body).Decode(&cars); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Cars(), cars); diff != "" {
		t.Errorf("data.json (-want +got):\n%s", diff)
	}
}

func TestRouter_Head(t *testing.T) {
	rec := httptest.NewRecorder()
	Router(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/grid", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("HEAD /grid = %d, want 200", rec.Code)
	}
}
