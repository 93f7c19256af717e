package fixture

import (
	"bytes"
	"cmp"
	"fmt"
	"html/template"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Sort directions as they appear in the dir query parameter.
const (
	DirAsc  = "asc"
	DirDesc = "desc"
)

// View is the state of one rendered grid page.
type View struct {
	// Page is zero-based. Out of range values are clamped.
	Page int
	// Sort is the sorted column's field, empty for dataset order.
	Sort string
	Dir  string
	// Pins overrides column pinning: field -> "left", "right" or "none".
	Pins map[string]string
}

// ParseView reads a View from /grid query parameters.
func ParseView(q url.Values) View {
	v := View{Sort: q.Get("sort"), Dir: q.Get("dir")}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		v.Page = p
	}
	for _, pin := range q["pin"] {
		field, side, ok := strings.Cut(pin, ":")
		if !ok {
			continue
		}
		if v.Pins == nil {
			v.Pins = make(map[string]string)
		}
		v.Pins[field] = side
	}
	if v.Dir != DirAsc && v.Dir != DirDesc {
		v.Sort, v.Dir = "", ""
	}
	return v
}

// Query encodes v back into query parameters.
func (v View) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(v.Page))
	if v.Sort != "" && v.Dir != "" {
		q.Set("sort", v.Sort)
		q.Set("dir", v.Dir)
	}
	fields := make([]string, 0, len(v.Pins))
	for f := range v.Pins {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	for _, f := range fields {
		q.Add("pin", f+":"+v.Pins[f])
	}
	return q
}

// columns returns the columns in display order: pinned left, center,
// pinned right, each keeping declaration order.
func (v View) columns() []Column {
	var left, center, right []Column
	for _, c := range Columns() {
		if side, ok := v.Pins[c.Field]; ok {
			c.Pinned = side
		}
		switch c.Pinned {
		case "left":
			left = append(left, c)
		case "right":
			right = append(right, c)
		default:
			c.Pinned = ""
			center = append(center, c)
		}
	}
	return slices.Concat(left, center, right)
}

// Sorted returns cars ordered for v. Numeric values compare as numbers,
// text compares case-insensitively. The sort is stable.
func Sorted(cars []Car, v View) []Car {
	out := slices.Clone(cars)
	if v.Sort == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b Car) int {
		c := compareValues(a.Value(v.Sort), b.Value(v.Sort))
		if v.Dir == DirDesc {
			return -c
		}
		return c
	})
	return out
}

func compareValues(a, b string) int {
	x, errA := strconv.Atoi(a)
	y, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return cmp.Compare(x, y)
	}
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// nextDir cycles none -> asc -> desc -> none.
func nextDir(current string) string {
	switch current {
	case "":
		return DirAsc
	case DirAsc:
		return DirDesc
	}
	return ""
}

func ariaSort(dir string) string {
	switch dir {
	case DirAsc:
		return "ascending"
	case DirDesc:
		return "descending"
	}
	return "none"
}

type headerView struct {
	Field    string
	Label    string
	ColIndex int
	AriaSort string
	Href     string
}

type cellView struct {
	Field    string
	ColIndex int
	Text     string
}

type rowView struct {
	Index int
	Top   int
	Cells []cellView
}

type regionView struct {
	Headers []headerView
	Rows    []rowView
	Hidden  bool
}

type pageView struct {
	Left, Center, Right regionView
	Page, Pages         int
	First, Last         int
	Total               int
	NextHref            string
	LastPage            bool
}

const rowHeight = 42

var gridTmpl = template.Must(template.New("grid").Parse(`<div id="myGrid" class="ag-theme-alpine">
<div class="ag-root-wrapper"><div class="ag-root" role="grid">
<div class="ag-header">
{{- template "headers" .Left}}{{template "headers" .Center}}{{template "headers" .Right -}}
</div>
<div class="ag-body">
<div class="ag-pinned-left-cols-container{{if .Left.Hidden}} ag-hidden{{end}}">{{template "rows" .Left}}</div>
<div class="ag-center-cols-viewport"><div class="ag-center-cols-container">{{template "rows" .Center}}</div></div>
<div class="ag-pinned-right-cols-container{{if .Right.Hidden}} ag-hidden{{end}}">{{template "rows" .Right}}</div>
</div>
</div>
<div class="ag-paging-panel">
<span class="ag-paging-row-summary-panel">{{.First}} to {{.Last}} of {{.Total}}</span>
<span class="ag-paging-description">Page {{.Page}} of {{.Pages}}</span>
<a class="ag-paging-button{{if .LastPage}} ag-disabled{{end}}" href="{{.NextHref}}"><span class="ag-icon ag-icon-next"></span></a>
</div>
</div></div>
{{- define "headers"}}
<div class="ag-header-row ag-header-row-column">
{{- range .Headers}}
<div class="ag-header-cell" col-id="{{.Field}}" aria-colindex="{{.ColIndex}}" aria-sort="{{.AriaSort}}"><div class="ag-header-cell-label">
{{- if .Href}}<a class="ag-header-cell-text" href="{{.Href}}">{{.Label}}</a>{{else}}<span class="ag-header-cell-text">{{.Label}}</span>{{end -}}
</div></div>
{{- end}}
</div>
{{- end}}
{{- define "rows"}}
{{- range .Rows}}
<div class="ag-row" role="row" row-index="{{.Index}}" style="top: {{.Top}}px">
{{- range .Cells}}<div class="ag-cell" col-id="{{.Field}}" aria-colindex="{{.ColIndex}}">{{.Text}}</div>{{end -}}
</div>
{{- end}}
{{- end}}`))

// Render renders one page of the dataset as ag-Grid-shaped markup.
//
// Header labels link to the next sort state of their column and the
// paging panel links to the following page. Center rows are emitted in
// reverse document order; row-index carries the display order.
func Render(v View) (string, error) {
	return render(Cars(), v)
}

// Markup is like Render but panics if rendering fails. It is meant for
// tests and static snapshots.
func Markup(v View) string {
	s, err := Render(v)
	if err != nil {
		panic(err)
	}
	return s
}

func render(cars []Car, v View) (string, error) {
	pages := PageCount(len(cars))
	v.Page = min(max(v.Page, 0), pages-1)
	sorted := Sorted(cars, v)
	start := v.Page * PageSize
	end := min(start+PageSize, len(sorted))

	cols := v.columns()
	regions := map[string]*regionView{"left": {}, "": {}, "right": {}}
	for i, c := range cols {
		h := headerView{Field: c.Field, Label: c.Header, ColIndex: i + 1, AriaSort: "none"}
		dir := ""
		if v.Sort == c.Field {
			dir = v.Dir
			h.AriaSort = ariaSort(dir)
		}
		if c.Sortable {
			next := v
			next.Sort, next.Dir = c.Field, nextDir(dir)
			if next.Dir == "" {
				next.Sort = ""
			}
			h.Href = "/grid?" + next.Query().Encode()
		}
		r := regions[c.Pinned]
		r.Headers = append(r.Headers, h)
	}

	for i, car := range sorted[start:end] {
		idx := start + i
		for side, r := range regions {
			row := rowView{Index: idx, Top: i * rowHeight}
			for j, c := range cols {
				if c.Pinned != side {
					continue
				}
				row.Cells = append(row.Cells, cellView{Field: c.Field, ColIndex: j + 1, Text: car.Value(c.Field)})
			}
			if len(row.Cells) > 0 {
				r.Rows = append(r.Rows, row)
			}
		}
	}
	slices.Reverse(regions[""].Rows)
	regions["left"].Hidden = len(regions["left"].Headers) == 0
	regions["right"].Hidden = len(regions["right"].Headers) == 0

	next := v
	if v.Page < pages-1 {
		next.Page = v.Page + 1
	}
	pv := pageView{
		Left:     *regions["left"],
		Center:   *regions[""],
		Right:    *regions["right"],
		Page:     v.Page + 1,
		Pages:    pages,
		First:    min(start+1, end),
		Last:     end,
		Total:    len(cars),
		NextHref: "/grid?" + next.Query().Encode(),
		LastPage: v.Page == pages-1,
	}

	var buf bytes.Buffer
	if err := gridTmpl.Execute(&buf, pv); err != nil {
		return "", fmt.Errorf("fixture: render grid: %w", err)
	}
	return buf.String(), nil
}
