package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"investmcp/internal/broker"
	"investmcp/internal/instrument"
	"investmcp/internal/service"
)

func newTestRegistry() (*Registry, *broker.Simulator) {
	sim := broker.NewSimulator()
	sim.SharesData = []*pb.Share{
		{Uid: "share-sber", Name: "Sberbank", Ticker: "SBER", Currency: "rub"},
		{Uid: "share-gazp", Name: "Gazprom", Ticker: "GAZP", Currency: "rub"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := instrument.NewCache(sim.Session, logger)
	svc := service.New("acc-test", sim.Session, cache, logger)
	return &Registry{svc: svc, logger: logger}, sim
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestGetSharesHandler(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.getShares(context.Background(), callRequest(map[string]any{
		"limit":  float64(1),
		"offset": float64(0),
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handler returned tool error: %s", textContent(t, result))
	}

	var page struct {
		Items   []map[string]any `json:"items"`
		Total   int              `json:"total"`
		HasMore bool             `json:"has_more"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &page); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || !page.HasMore {
		t.Errorf("page = total %d, %d items, more %v; want 2, 1, true", page.Total, len(page.Items), page.HasMore)
	}
	if page.Items[0]["ticker"] != "GAZP" {
		t.Errorf("first item ticker = %v, want GAZP (sorted order)", page.Items[0]["ticker"])
	}
}

func TestGetSharesHandlerDefaultsCoverWholeCatalog(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.getShares(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var page struct {
		Items   []map[string]any `json:"items"`
		HasMore bool             `json:"has_more"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &page); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if len(page.Items) != 2 || page.HasMore {
		t.Errorf("default window returned %d items, more %v; want the whole catalog", len(page.Items), page.HasMore)
	}
}

func TestGetSharesHandlerNegativeLimit(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.getShares(context.Background(), callRequest(map[string]any{"limit": float64(-1)}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("negative limit should produce a tool error")
	}
	if !strings.Contains(textContent(t, result), "non-negative") {
		t.Errorf("error text = %q", textContent(t, result))
	}
}

func TestGetOperationsHandlerRequiresFromDate(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.getOperations(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("missing from_date should produce a tool error")
	}

	result, err = r.getOperations(context.Background(), callRequest(map[string]any{"from_date": "not-a-date"}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("malformed from_date should produce a tool error")
	}
}

func TestCreateOrderHandler(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.createOrder(context.Background(), callRequest(map[string]any{
		"instrument_id": "share-sber",
		"quantity":      float64(2),
		"direction":     "ORDER_DIRECTION_BUY",
		"order_type":    "ORDER_TYPE_LIMIT",
		"price":         "305.5",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("handler returned tool error: %s", textContent(t, result))
	}

	var order struct {
		OrderID        string `json:"order_id"`
		InstrumentName string `json:"instrument_name"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &order); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if !strings.HasPrefix(order.OrderID, "sim-") {
		t.Errorf("order_id = %q, want sim- prefix", order.OrderID)
	}
	if order.InstrumentName != "Sberbank" {
		t.Errorf("instrument_name = %q, want Sberbank", order.InstrumentName)
	}
}

func TestCreateOrderHandlerBadPrice(t *testing.T) {
	r, _ := newTestRegistry()

	result, err := r.createOrder(context.Background(), callRequest(map[string]any{
		"instrument_id": "share-sber",
		"quantity":      float64(1),
		"direction":     "ORDER_DIRECTION_BUY",
		"order_type":    "ORDER_TYPE_LIMIT",
		"price":         "half a ruble",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError || !strings.Contains(textContent(t, result), "invalid price") {
		t.Errorf("want invalid price tool error, got %q", textContent(t, result))
	}
}

func TestClearCacheHandler(t *testing.T) {
	r, sim := newTestRegistry()
	ctx := context.Background()

	if _, err := r.getShares(ctx, callRequest(nil)); err != nil {
		t.Fatalf("priming call returned error: %v", err)
	}
	calls := sim.CatalogCalls

	result, err := r.clearInstrumentsCache(ctx, callRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	var cleared struct {
		Cleared bool `json:"cleared"`
		Dropped int  `json:"dropped_entries"`
	}
	if err := json.Unmarshal([]byte(textContent(t, result)), &cleared); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if !cleared.Cleared || cleared.Dropped != 2 {
		t.Errorf("cleared = %+v, want 2 dropped entries", cleared)
	}

	if _, err := r.getShares(ctx, callRequest(nil)); err != nil {
		t.Fatalf("reload call returned error: %v", err)
	}
	if sim.CatalogCalls != calls+3 {
		t.Errorf("CatalogCalls = %d after clear, want %d", sim.CatalogCalls, calls+3)
	}
}

func TestLogFailures(t *testing.T) {
	r, _ := newTestRegistry()
	var buf bytes.Buffer
	r.logger = slog.New(slog.NewTextHandler(&buf, nil))

	handler := r.logFailures(r.getShares)

	// A successful call logs nothing.
	if _, err := handler(context.Background(), callRequest(nil)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("successful call produced log output: %s", buf.String())
	}

	// A tool error is logged with the tool name and detail.
	req := callRequest(map[string]any{"limit": float64(-1)})
	req.Params.Name = "get_shares"
	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("negative limit should produce a tool error")
	}
	logged := buf.String()
	if !strings.Contains(logged, "get_shares") || !strings.Contains(logged, "non-negative") {
		t.Errorf("log output = %q, want tool name and error detail", logged)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	r, _ := newTestRegistry()
	if s := NewServer(r.svc, r.logger); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
