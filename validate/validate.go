// Package validate asserts that grid snapshots match expected records.
//
// All checks return a *MismatchError carrying both payloads when the
// actual rows diverge from the expected ones.
package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/gridsnap/snapshot"
)

// Check names.
const (
	CheckExactOrder = "exact order"
	CheckSubset     = "subset"
	CheckEmpty      = "empty"
)

// MismatchError reports a divergence between expected and actual rows.
type MismatchError struct {
	Check string
	// Page is the zero-based page of a paginated check, -1 otherwise.
	Page     int
	Expected []snapshot.Record
	Actual   []snapshot.Record
	// Missing lists expected records with no equal actual record (subset).
	Missing []snapshot.Record
	// Diff is a go-cmp rendering (-expected +actual). For subset checks
	// the expected side holds only the missing records.
	Diff string
}

func (e *MismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validate: %s check failed", e.Check)
	if e.Page >= 0 {
		fmt.Fprintf(&b, " on page %d", e.Page+1)
	}
	fmt.Fprintf(&b, ": expected %d rows, got %d", len(e.Expected), len(e.Actual))
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ", %d missing", len(e.Missing))
	}
	if e.Diff != "" {
		b.WriteString("\n")
		b.WriteString(e.Diff)
	}
	return b.String()
}

// ExactOrder requires actual to equal expected row for row.
func ExactOrder(actual, expected []snapshot.Record) error {
	if cmp.Equal(normalize(expected), normalize(actual)) {
		return nil
	}
	return &MismatchError{
		Check:    CheckExactOrder,
		Page:     -1,
		Expected: expected,
		Actual:   actual,
		Diff:     cmp.Diff(normalize(expected), normalize(actual)),
	}
}

// Subset requires every expected record to equal some actual record.
// Order and additional actual rows are ignored.
func Subset(actual, expected []snapshot.Record) error {
	missing := missingRecords(actual, expected)
	if len(missing) == 0 {
		return nil
	}
	return &MismatchError{
		Check:    CheckSubset,
		Page:     -1,
		Expected: expected,
		Actual:   actual,
		Missing:  missing,
		Diff:     cmp.Diff(missing, actual),
	}
}

// Empty requires zero rows.
func Empty(actual []snapshot.Record) error {
	if len(actual) == 0 {
		return nil
	}
	return &MismatchError{
		Check:    CheckEmpty,
		Page:     -1,
		Expected: []snapshot.Record{},
		Actual:   actual,
		Diff:     cmp.Diff([]snapshot.Record{}, actual),
	}
}

// Pager reads the current page and advances to the next one.
type Pager interface {
	ReadData(ctx context.Context, opts snapshot.Options) ([]snapshot.Record, error)
	NextPage(ctx context.Context) error
}

// PaginatedTable checks each expected page in turn with Subset and
// advances the pager after every checked page, the last one included.
// It stops at the first failure; pages already visited are not navigated
// back.
func PaginatedTable(ctx context.Context, p Pager, expectedPages [][]snapshot.Record, opts snapshot.Options) error {
	for i, expected := range expectedPages {
		actual, err := p.ReadData(ctx, opts)
		if err != nil {
			return fmt.Errorf("validate: read page %d: %w", i+1, err)
		}
		if err := Subset(actual, expected); err != nil {
			var me *MismatchError
			if errors.As(err, &me) {
				me.Page = i
			}
			return err
		}
		if err := p.NextPage(ctx); err != nil {
			return fmt.Errorf("validate: next page after %d: %w", i+1, err)
		}
	}
	return nil
}

func missingRecords(actual, expected []snapshot.Record) []snapshot.Record {
	var missing []snapshot.Record
	for _, want := range expected {
		found := false
		for _, got := range actual {
			if cmp.Equal(normalize1(want), normalize1(got)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, want)
		}
	}
	return missing
}

// normalize maps nil records to empty ones so a nil and an empty record
// compare equal.
func normalize(recs []snapshot.Record) []snapshot.Record {
	out := make([]snapshot.Record, len(recs))
	for i, r := range recs {
		out[i] = normalize1(r)
	}
	return out
}

func normalize1(r snapshot.Record) snapshot.Record {
	if r == nil {
		return snapshot.Record{}
	}
	return r
}
