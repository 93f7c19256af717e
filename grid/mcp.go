package grid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/gridsnap/internal/kit"
	"github.com/hazyhaar/gridsnap/render"
	"github.com/hazyhaar/gridsnap/snapshot"
)

// Driver is the grid surface exposed as MCP tools. *Grid implements it.
type Driver interface {
	Snapshot(ctx context.Context, opts snapshot.Options) (*snapshot.Snapshot, error)
	SortColumn(ctx context.Context, column string, dir Direction) error
	FilterByMenuText(ctx context.Context, opts FilterOptions) error
	FilterByFloatingText(ctx context.Context, opts FilterOptions) error
	FilterByCheckbox(ctx context.Context, opts FilterOptions) error
	ToggleColumnVisibility(ctx context.Context, column string, remove bool) error
	PinColumn(ctx context.Context, column string, side Side) error
	NextPage(ctx context.Context) error
}

var _ Driver = (*Grid)(nil)

// RegisterMCP registers the grid tools on srv.
func RegisterMCP(srv *mcp.Server, d Driver, logger *slog.Logger) {
	t := tools{d: d, log: logger}
	t.registerRead(srv)
	t.registerSort(srv)
	t.registerFilter(srv)
	t.registerToggleColumn(srv)
	t.registerPinColumn(srv)
	t.registerNextPage(srv)
}

type tools struct {
	d   Driver
	log *slog.Logger
}

func (t tools) register(srv *mcp.Server, tool *mcp.Tool, endpoint kit.Endpoint, decode kit.Decoder) {
	kit.RegisterMCPTool(srv, tool, kit.Logging(t.log, tool.Name)(endpoint), decode)
}

type done struct {
	Status string `json:"status"`
}

var statusOK = done{Status: "ok"}

// --- read ---

type readRequest struct {
	OnlyColumns []string `json:"only_columns,omitempty"`
	Format      string   `json:"format,omitempty"`
}

type readResponse struct {
	snapshot.Values
	Markdown string `json:"markdown,omitempty"`
}

func (t tools) registerRead(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grid_read",
		Description: "Read the visible grid page as headers plus rows, in column order.",
		InputSchema: kit.InputSchema(map[string]any{
			"only_columns": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Keep only these column labels"},
			"format":       map[string]any{"type": "string", "enum": []any{"values", "markdown"}, "description": "Add a Markdown table with markdown (default values)"},
		}),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*readRequest)
		snap, err := t.d.Snapshot(ctx, snapshot.Options{OnlyColumns: r.OnlyColumns})
		if err != nil {
			return nil, err
		}
		resp := readResponse{Values: snap.Values()}
		switch r.Format {
		case "", "values":
		case "markdown":
			md, err := render.Markdown(snap)
			if err != nil {
				return nil, err
			}
			resp.Markdown = md
		default:
			return nil, fmt.Errorf("unknown format %q", r.Format)
		}
		return resp, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[readRequest]())
}

// --- sort ---

type sortRequest struct {
	Column    string `json:"column"`
	Direction string `json:"direction"`
}

func (t tools) registerSort(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grid_sort",
		Description: "Sort a column by clicking its header until it reports the requested direction.",
		InputSchema: kit.InputSchema(map[string]any{
			"column":    map[string]any{"type": "string", "description": "Header label"},
			"direction": map[string]any{"type": "string", "enum": []any{string(Ascending), string(Descending)}},
		}, "column", "direction"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*sortRequest)
		dir, err := ParseDirection(r.Direction)
		if err != nil {
			return nil, err
		}
		if err := t.d.SortColumn(ctx, r.Column, dir); err != nil {
			return nil, err
		}
		return statusOK, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[sortRequest]())
}

// --- filter ---

type filterRequest struct {
	Mode string `json:"mode"`
	FilterOptions
}

func (t tools) registerFilter(srv *mcp.Server) {
	operators := make([]any, len(Operators))
	for i, op := range Operators {
		operators[i] = string(op)
	}
	tool := &mcp.Tool{
		Name:        "grid_filter",
		Description: "Filter columns through the column menu text filter, the floating filter, or the value checkboxes.",
		InputSchema: kit.InputSchema(map[string]any{
			"mode": map[string]any{"type": "string", "enum": []any{"menu", "floating", "checkbox"}},
			"criteria": map[string]any{
				"type": "array",
				"items": kit.InputSchema(map[string]any{
					"column":       map[string]any{"type": "string"},
					"value":        map[string]any{"type": "string"},
					"operator":     map[string]any{"type": "string", "enum": operators},
					"input_index":  map[string]any{"type": "integer", "description": "Which visible filter input to type into (default 0)"},
					"multi_filter": map[string]any{"type": "boolean"},
				}, "column", "value"),
			},
			"has_apply_button": map[string]any{"type": "boolean"},
			"no_menu_tabs":     map[string]any{"type": "boolean"},
			"select_all_text":  map[string]any{"type": "string"},
		}, "mode", "criteria"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*filterRequest)
		var err error
		switch r.Mode {
		case "menu":
			err = t.d.FilterByMenuText(ctx, r.FilterOptions)
		case "floating":
			err = t.d.FilterByFloatingText(ctx, r.FilterOptions)
		case "checkbox":
			err = t.d.FilterByCheckbox(ctx, r.FilterOptions)
		default:
			return nil, fmt.Errorf("unknown filter mode %q", r.Mode)
		}
		if err != nil {
			return nil, err
		}
		return statusOK, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[filterRequest]())
}

// --- toggle_column ---

type toggleColumnRequest struct {
	Column string `json:"column"`
	Remove bool   `json:"remove"`
}

func (t tools) registerToggleColumn(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grid_toggle_column",
		Description: "Show or hide a column through the Columns side bar.",
		InputSchema: kit.InputSchema(map[string]any{
			"column": map[string]any{"type": "string"},
			"remove": map[string]any{"type": "boolean", "description": "Hide the column instead of showing it"},
		}, "column"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*toggleColumnRequest)
		if err := t.d.ToggleColumnVisibility(ctx, r.Column, r.Remove); err != nil {
			return nil, err
		}
		return statusOK, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[toggleColumnRequest]())
}

// --- pin_column ---

type pinColumnRequest struct {
	Column string `json:"column"`
	Side   string `json:"side"`
}

func (t tools) registerPinColumn(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grid_pin_column",
		Description: "Pin a column to the left or right, or unpin it.",
		InputSchema: kit.InputSchema(map[string]any{
			"column": map[string]any{"type": "string"},
			"side":   map[string]any{"type": "string", "enum": []any{string(PinLeft), string(PinRight), string(PinNone)}},
		}, "column", "side"),
	}
	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pinColumnRequest)
		side, err := ParseSide(r.Side)
		if err != nil {
			return nil, err
		}
		if err := t.d.PinColumn(ctx, r.Column, side); err != nil {
			return nil, err
		}
		return statusOK, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[pinColumnRequest]())
}

// --- next_page ---

func (t tools) registerNextPage(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "grid_next_page",
		Description: "Go to the next page of a paginated grid.",
		InputSchema: kit.InputSchema(map[string]any{}),
	}
	endpoint := func(ctx context.Context, _ any) (any, error) {
		if err := t.d.NextPage(ctx); err != nil {
			return nil, err
		}
		return statusOK, nil
	}
	t.register(srv, tool, endpoint, kit.JSON[struct{}]())
}
