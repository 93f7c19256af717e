package grid

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"ascending", Ascending, false},
		{"descending", Descending, false},
		{"none", "", true},
		{"asc", "", true},
		{"", "", true},
		{"Ascending", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				var de *InvalidDirectionError
				if !errors.As(err, &de) {
					t.Fatalf("err = %v, want *InvalidDirectionError", err)
				}
				if de.Direction != tt.in {
					t.Errorf("Direction = %q, want %q", de.Direction, tt.in)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestParseSide(t *testing.T) {
	for _, s := range []string{"left", "right", "none"} {
		if _, err := ParseSide(s); err != nil {
			t.Errorf("ParseSide(%q): %v", s, err)
		}
	}
	var se *InvalidSideError
	if _, err := ParseSide("top"); !errors.As(err, &se) {
		t.Fatalf("err = %v, want *InvalidSideError", err)
	}
}

// A Grid without a page fails on first use of the page, so these prove
// the arguments are rejected before any UI action.
func TestInvalidArgumentsRejectedBeforeUI(t *testing.T) {
	g := New(nil, "#myGrid", Config{})
	ctx := context.Background()

	var de *InvalidDirectionError
	if err := g.SortColumn(ctx, "Year", "sideways"); !errors.As(err, &de) {
		t.Errorf("SortColumn: err = %v, want *InvalidDirectionError", err)
	}
	var se *InvalidSideError
	if err := g.PinColumn(ctx, "Price", "middle"); !errors.As(err, &se) {
		t.Errorf("PinColumn: err = %v, want *InvalidSideError", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	g := New(nil, "#myGrid", Config{})
	c := g.cfg
	if c.SettleTimeout != 10*time.Second || c.ClickDelay != 250*time.Millisecond ||
		c.FilterDelay != 500*time.Millisecond || c.ActionTimeout != 10*time.Second {
		t.Errorf("timings = %+v", c)
	}
	if c.SelectAllText != "Select All" {
		t.Errorf("SelectAllText = %q", c.SelectAllText)
	}
	if g.layout.HeaderCell == "" || g.layout.Row != ".ag-row" {
		t.Errorf("layout defaults not applied: %+v", g.layout)
	}
	if g.Selector() != "#myGrid" {
		t.Errorf("Selector = %q", g.Selector())
	}
}

func TestFilterOptionDefaults(t *testing.T) {
	g := New(nil, "#g", Config{HasApplyButton: true, SelectAllText: "Tout"})

	got := g.withDefaults(FilterOptions{})
	if !got.HasApplyButton || got.NoMenuTabs || got.SelectAllText != "Tout" {
		t.Errorf("got %+v", got)
	}
	got = g.withDefaults(FilterOptions{NoMenuTabs: true, SelectAllText: "(Select All)"})
	if !got.NoMenuTabs || got.SelectAllText != "(Select All)" {
		t.Errorf("explicit options overridden: %+v", got)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&SelectorCardinalityError{Selector: "#g", Count: 0}, `selector "#g" matched 0 elements`},
		{&SelectorCardinalityError{Selector: ".ag-root", Count: 2}, "matched 2 elements, want exactly 1"},
		{&InvalidDirectionError{Direction: "up"}, `got "up"`},
		{&InvalidSideError{Side: "top"}, `got "top"`},
		{&ElementNotFoundError{Selector: ".ag-icon-next"}, `no element matches ".ag-icon-next"`},
		{&ElementNotFoundError{Selector: "span", Text: "Columns"}, `with text "Columns"`},
		{&SortStateError{Column: "Price", Want: Ascending, Got: "none", Clicks: 3}, `aria-sort is "none" after 3 clicks`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); !strings.Contains(got, tt.want) {
			t.Errorf("%T: %q lacks %q", tt.err, got, tt.want)
		}
	}
}

func TestPoll(t *testing.T) {
	calls := 0
	err := poll(context.Background(), func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil || calls != 3 {
		t.Errorf("calls = %d, err = %v", calls, err)
	}

	boom := errors.New("boom")
	if err := poll(context.Background(), func() (bool, error) { return false, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := poll(ctx, func() (bool, error) { return false, nil }); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline", err)
	}
}

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want canceled", err)
	}
}
