package kit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestChain_Order(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}

	base := func(_ context.Context, _ any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"))(base)(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp != "ok" {
		t.Fatalf("response: got %v", resp)
	}

	expected := []string{"a_before", "b_before", "endpoint", "b_after", "a_after"}
	if len(order) != len(expected) {
		t.Fatalf("order: got %v, want %v", order, expected)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Fatalf("order[%d]: got %q, want %q", i, order[i], v)
		}
	}
}

func TestLogging_PassesErrorsThrough(t *testing.T) {
	errFail := errors.New("fail")
	base := func(_ context.Context, _ any) (any, error) { return nil, errFail }

	_, err := Logging(slog.Default(), "t")(base)(context.Background(), nil)
	if !errors.Is(err, errFail) {
		t.Fatalf("error: got %v, want %v", err, errFail)
	}
}

type sample struct {
	Column string `json:"column"`
	Index  int    `json:"index"`
}

func TestJSONDecoder(t *testing.T) {
	dec := JSON[sample]()

	got, err := dec(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: []byte(`{"column":"Make","index":2}`),
	}})
	if err != nil {
		t.Fatal(err)
	}
	s := got.(*sample)
	if s.Column != "Make" || s.Index != 2 {
		t.Fatalf("got %+v", s)
	}

	got, err = dec(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{}})
	if err != nil {
		t.Fatal(err)
	}
	if *got.(*sample) != (sample{}) {
		t.Fatalf("empty arguments: got %+v", got)
	}

	if _, err := dec(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{
		Arguments: []byte(`{"index":"x"}`),
	}}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestInputSchema(t *testing.T) {
	s := InputSchema(map[string]any{"a": map[string]any{"type": "string"}})
	if _, ok := s["required"]; ok {
		t.Error("required set without required fields")
	}
	s = InputSchema(map[string]any{}, "a")
	if req, _ := s["required"].([]string); len(req) != 1 || req[0] != "a" {
		t.Errorf("required = %v", s["required"])
	}
}
