// Package tools exposes the brokerage operations as MCP tools over a
// stdio server. Handlers decode the tool arguments, call the service
// layer and return the result as a JSON text block.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"investmcp/internal/service"
)

const (
	// Generous enough that an unpaginated listing returns the whole
	// catalog in one page.
	defaultListLimit = 100000

	serverName    = "tinkoff-invest-mcp"
	serverVersion = "1.0.0"
)

// Registry binds tool handlers to one Service.
type Registry struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewServer builds the MCP server with every tool registered.
func NewServer(svc *service.Service, logger *slog.Logger) *server.MCPServer {
	r := &Registry{svc: svc, logger: logger}
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(r.logFailures),
	)
	r.register(s)
	return s
}

// logFailures reports failed tool calls. Tool errors go back to the client
// inside the result, so without this the server log would show nothing.
func (r *Registry) logFailures(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := next(ctx, req)
		switch {
		case err != nil:
			r.logger.Error("tool call failed", "tool", req.Params.Name, "error", err)
		case result != nil && result.IsError:
			r.logger.Warn("tool returned error", "tool", req.Params.Name, "detail", resultText(result))
		}
		return result, err
	}
}

// resultText extracts the first text block of a result for logging.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func (r *Registry) register(s *server.MCPServer) {
	// Portfolio.
	s.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Get the account portfolio: every position with quantities, average and current prices, expected yield, and the portfolio totals."),
	), r.getPortfolio)
	s.AddTool(mcp.NewTool("get_cash_balance",
		mcp.WithDescription("Get free and blocked cash per currency."),
	), r.getCashBalance)

	// Operations.
	s.AddTool(mcp.NewTool("get_operations",
		mcp.WithDescription("Get account operations for a period."),
		mcp.WithString("from_date", mcp.Required(), mcp.Description("Period start, ISO 8601 (e.g. 2024-01-01T00:00:00Z)")),
		mcp.WithString("to_date", mcp.Description("Period end, ISO 8601. Defaults to now")),
		mcp.WithString("state", mcp.Description("Filter by state, e.g. OPERATION_STATE_EXECUTED or OPERATION_STATE_CANCELED")),
		mcp.WithString("instrument_uid", mcp.Description("Filter by instrument id")),
	), r.getOperations)

	// Market data.
	s.AddTool(mcp.NewTool("get_last_prices",
		mcp.WithDescription("Get the most recent trade prices for a list of instruments."),
		mcp.WithArray("instrument_uids", mcp.Required(),
			mcp.Description("Instrument ids"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), r.getLastPrices)
	s.AddTool(mcp.NewTool("get_candles",
		mcp.WithDescription("Get historical candles for one instrument."),
		mcp.WithString("instrument_uid", mcp.Required(), mcp.Description("Instrument id")),
		mcp.WithString("from_date", mcp.Required(), mcp.Description("Period start, ISO 8601")),
		mcp.WithString("to_date", mcp.Description("Period end, ISO 8601. Defaults to now")),
		mcp.WithString("interval", mcp.Description("Candle interval: 1min, 5min, 15min, hour, day or the full CANDLE_INTERVAL_* name. Defaults to 1min")),
	), r.getCandles)
	s.AddTool(mcp.NewTool("get_order_book",
		mcp.WithDescription("Get an order book snapshot with bids and asks."),
		mcp.WithString("instrument_uid", mcp.Required(), mcp.Description("Instrument id")),
		mcp.WithNumber("depth", mcp.Description("Price levels per side, max 50. Defaults to 10")),
	), r.getOrderBook)
	s.AddTool(mcp.NewTool("get_trading_status",
		mcp.WithDescription("Get the current trading status of one instrument."),
		mcp.WithString("instrument_uid", mcp.Required(), mcp.Description("Instrument id")),
	), r.getTradingStatus)
	s.AddTool(mcp.NewTool("get_trading_schedules",
		mcp.WithDescription("Get exchange trading schedules for a period."),
		mcp.WithString("exchange", mcp.Description("Exchange code (MOEX, MOEX_PLUS, SPB). Defaults to MOEX")),
		mcp.WithString("from_date", mcp.Description("Period start, ISO 8601. Defaults to today")),
		mcp.WithString("to_date", mcp.Description("Period end, ISO 8601. Defaults to a week after the start")),
	), r.getTradingSchedules)

	// Orders.
	s.AddTool(mcp.NewTool("get_orders",
		mcp.WithDescription("List active trading orders."),
	), r.getOrders)
	s.AddTool(mcp.NewTool("create_order",
		mcp.WithDescription("Place a trading order."),
		mcp.WithString("instrument_id", mcp.Required(), mcp.Description("Instrument id")),
		mcp.WithNumber("quantity", mcp.Required(), mcp.Description("Number of lots")),
		mcp.WithString("direction", mcp.Required(), mcp.Description("ORDER_DIRECTION_BUY or ORDER_DIRECTION_SELL")),
		mcp.WithString("order_type", mcp.Required(), mcp.Description("ORDER_TYPE_LIMIT or ORDER_TYPE_MARKET")),
		mcp.WithString("price", mcp.Description("Limit price as a decimal string, e.g. \"15.475\". Required for limit orders")),
	), r.createOrder)
	s.AddTool(mcp.NewTool("cancel_order",
		mcp.WithDescription("Cancel an active trading order."),
		mcp.WithString("order_id", mcp.Required(), mcp.Description("Order id")),
	), r.cancelOrder)

	// Stop orders.
	s.AddTool(mcp.NewTool("get_stop_orders",
		mcp.WithDescription("List active stop orders."),
	), r.getStopOrders)
	s.AddTool(mcp.NewTool("create_stop_order",
		mcp.WithDescription("Place a stop order."),
		mcp.WithString("instrument_id", mcp.Required(), mcp.Description("Instrument id")),
		mcp.WithNumber("quantity", mcp.Required(), mcp.Description("Number of lots")),
		mcp.WithString("direction", mcp.Required(), mcp.Description("STOP_ORDER_DIRECTION_BUY or STOP_ORDER_DIRECTION_SELL")),
		mcp.WithString("stop_order_type", mcp.Required(), mcp.Description("STOP_ORDER_TYPE_TAKE_PROFIT, STOP_ORDER_TYPE_STOP_LOSS or STOP_ORDER_TYPE_STOP_LIMIT")),
		mcp.WithString("stop_price", mcp.Required(), mcp.Description("Activation price as a decimal string")),
		mcp.WithString("expiration_type", mcp.Description("STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL or STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_DATE. Defaults to good till cancel")),
		mcp.WithString("price", mcp.Description("Execution price for stop limit orders, decimal string")),
		mcp.WithString("expire_date", mcp.Description("Expiration date, ISO 8601. Required for good till date")),
	), r.createStopOrder)
	s.AddTool(mcp.NewTool("cancel_stop_order",
		mcp.WithDescription("Cancel an active stop order."),
		mcp.WithString("stop_order_id", mcp.Required(), mcp.Description("Stop order id")),
	), r.cancelStopOrder)

	// Instruments.
	s.AddTool(mcp.NewTool("find_instrument",
		mcp.WithDescription("Search instruments by ticker, ISIN, FIGI or name."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
	), r.findInstrument)
	s.AddTool(mcp.NewTool("get_instrument_by_uid",
		mcp.WithDescription("Get the full description of one instrument by its uid."),
		mcp.WithString("uid", mcp.Required(), mcp.Description("Instrument uid")),
	), r.getInstrumentByUID)
	s.AddTool(mcp.NewTool("get_shares",
		mcp.WithDescription("List tradable shares, paginated."),
		mcp.WithNumber("limit", mcp.Description("Page size")),
		mcp.WithNumber("offset", mcp.Description("Items to skip")),
	), r.getShares)
	s.AddTool(mcp.NewTool("get_bonds",
		mcp.WithDescription("List tradable bonds, paginated."),
		mcp.WithNumber("limit", mcp.Description("Page size")),
		mcp.WithNumber("offset", mcp.Description("Items to skip")),
	), r.getBonds)
	s.AddTool(mcp.NewTool("get_etfs",
		mcp.WithDescription("List tradable ETFs, paginated."),
		mcp.WithNumber("limit", mcp.Description("Page size")),
		mcp.WithNumber("offset", mcp.Description("Items to skip")),
	), r.getEtfs)
	s.AddTool(mcp.NewTool("clear_instruments_cache",
		mcp.WithDescription("Drop the cached instrument catalogs. The next lookup reloads them."),
	), r.clearInstrumentsCache)
}

// jsonResult encodes v as an indented JSON text block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// parseTimeArg parses an optional ISO 8601 argument, returning the zero
// time when absent.
func parseTimeArg(req mcp.CallToolRequest, key string) (time.Time, error) {
	s := req.GetString(key, "")
	if s == "" {
		return time.Time{}, nil
	}
	t, err := parseISO(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return t, nil
}

func parseISO(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want ISO 8601", s)
}
