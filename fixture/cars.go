// Package fixture serves a small car dataset as ag-Grid-shaped pages so the
// grid reader and its interaction helpers can be exercised without a real
// grid build.
//
// /grid is rendered on the server: sorting, pinning and paging are plain
// links carrying their state in the query string. /demo serves the same
// data through the real ag-Grid library loaded from a CDN.
package fixture

import (
	"strconv"

	"github.com/hazyhaar/gridsnap/snapshot"
)

// PageSize is the number of rows per page.
const PageSize = 5

// Car is one dataset row.
type Car struct {
	Year      int    `json:"year"`
	Make      string `json:"make"`
	Model     string `json:"model"`
	Condition string `json:"condition"`
	Price     int    `json:"price"`
}

// Column describes one grid column.
type Column struct {
	Field    string
	Header   string
	Pinned   string // "left", "right" or ""
	Sortable bool
}

// Columns returns the column definitions in declaration order.
func Columns() []Column {
	return []Column{
		{Field: "year", Header: "Year", Pinned: "left", Sortable: true},
		{Field: "make", Header: "Make", Pinned: "left", Sortable: true},
		{Field: "model", Header: "Model", Sortable: true},
		{Field: "condition", Header: "Condition", Sortable: true},
		{Field: "price", Header: "Price", Pinned: "right"},
	}
}

// Cars returns the dataset in its natural order.
func Cars() []Car {
	return []Car{
		{2020, "Toyota", "Celica", "fair", 35000},
		{2020, "Ford", "Mondeo", "excellent", 32000},
		{2020, "Porsche", "Boxter", "good", 72000},
		{2020, "BMW", "3-series", "fair", 45000},
		{2020, "Mercedes", "GLC300", "good", 53000},
		{2020, "Honda", "Civic", "poor", 22000},
		{2020, "Honda", "Accord", "poor", 32000},
		{2020, "Ford", "Taurus", "excellent", 19000},
		{2020, "Hyundai", "Elantra", "good", 22000},
		{2020, "Toyota", "Celica", "poor", 5000},
		{2020, "Ford", "Mondeo", "good", 25000},
		{2020, "Porsche", "Boxter", "good", 99000},
		{2020, "BMW", "3-series", "poor", 32000},
		{2020, "Mercedes", "GLC300", "excellent", 35000},
		{2011, "Honda", "Civic", "good", 9000},
		{2020, "Honda", "Accord", "good", 34000},
		{1990, "Ford", "Taurus", "excellent", 900},
		{2020, "Hyundai", "Elantra", "fair", 3000},
		{2020, "BMW", "2002", "excellent", 88001},
	}
}

// Value returns the display text of field.
func (c Car) Value(field string) string {
	switch field {
	case "year":
		return strconv.Itoa(c.Year)
	case "make":
		return c.Make
	case "model":
		return c.Model
	case "condition":
		return c.Condition
	case "price":
		return strconv.Itoa(c.Price)
	}
	return ""
}

// Record returns the car keyed by column header.
func (c Car) Record() snapshot.Record {
	rec := make(snapshot.Record, len(Columns()))
	for _, col := range Columns() {
		rec[col.Header] = c.Value(col.Field)
	}
	return rec
}

// Pages splits cars into records of PageSize rows. With only set, each
// record keeps just those headers.
func Pages(cars []Car, only ...string) [][]snapshot.Record {
	var pages [][]snapshot.Record
	for start := 0; start < len(cars); start += PageSize {
		end := min(start+PageSize, len(cars))
		page := make([]snapshot.Record, 0, end-start)
		for _, c := range cars[start:end] {
			rec := c.Record()
			if len(only) > 0 {
				kept := make(snapshot.Record, len(only))
				for _, h := range only {
					if v, ok := rec[h]; ok {
						kept[h] = v
					}
				}
				rec = kept
			}
			page = append(page, rec)
		}
		pages = append(pages, page)
	}
	return pages
}

// PageCount returns the number of pages for n rows.
func PageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}
