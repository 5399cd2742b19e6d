package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"

	"investmcp/internal/service"
)

func (r *Registry) getPortfolio(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := r.svc.GetPortfolio(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p)
}

func (r *Registry) getCashBalance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	b, err := r.svc.GetCashBalance(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(b)
}

func (r *Registry) getOperations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromTime, err := parseISO(from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toTime, err := parseTimeArg(req, "to_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ops, err := r.svc.GetOperations(ctx, service.OperationsQuery{
		From:         fromTime,
		To:           toTime,
		State:        req.GetString("state", ""),
		InstrumentID: req.GetString("instrument_uid", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"operations": ops})
}

func (r *Registry) getLastPrices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("instrument_uids", nil)
	prices, err := r.svc.GetLastPrices(ctx, ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"prices": prices})
}

func (r *Registry) getCandles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := req.RequireString("instrument_uid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := req.RequireString("from_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromTime, err := parseISO(from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toTime, err := parseTimeArg(req, "to_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	series, err := r.svc.GetCandles(ctx, service.CandlesQuery{
		InstrumentID: uid,
		From:         fromTime,
		To:           toTime,
		Interval:     req.GetString("interval", "1min"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(series)
}

func (r *Registry) getOrderBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := req.RequireString("instrument_uid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	book, err := r.svc.GetOrderBook(ctx, uid, int32(req.GetInt("depth", 0)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(book)
}

func (r *Registry) getTradingStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := req.RequireString("instrument_uid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := r.svc.GetTradingStatus(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(status)
}

func (r *Registry) getTradingSchedules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromTime, err := parseTimeArg(req, "from_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if fromTime.IsZero() {
		fromTime = time.Now().UTC().Truncate(24 * time.Hour)
	}
	toTime, err := parseTimeArg(req, "to_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	schedules, err := r.svc.GetTradingSchedules(ctx, req.GetString("exchange", "MOEX"), fromTime, toTime)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"schedules": schedules})
}

func (r *Registry) getOrders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orders, err := r.svc.GetOrders(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"orders": orders})
}

func (r *Registry) createOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instrumentID, err := req.RequireString("instrument_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	orderType, err := req.RequireString("order_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	order := service.OrderRequest{
		InstrumentID: instrumentID,
		Direction:    direction,
		Type:         orderType,
		Lots:         int64(req.GetInt("quantity", 0)),
	}
	if s := req.GetString("price", ""); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return mcp.NewToolResultError("invalid price: " + err.Error()), nil
		}
		order.Price = &price
	}

	result, err := r.svc.CreateOrder(ctx, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (r *Registry) cancelOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderID, err := req.RequireString("order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := r.svc.CancelOrder(ctx, orderID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (r *Registry) getStopOrders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orders, err := r.svc.GetStopOrders(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"stop_orders": orders})
}

func (r *Registry) createStopOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instrumentID, err := req.RequireString("instrument_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stopOrderType, err := req.RequireString("stop_order_type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stopPriceArg, err := req.RequireString("stop_price")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	stopPrice, err := decimal.NewFromString(stopPriceArg)
	if err != nil {
		return mcp.NewToolResultError("invalid stop_price: " + err.Error()), nil
	}

	order := service.StopOrderRequest{
		InstrumentID:   instrumentID,
		Direction:      direction,
		Type:           stopOrderType,
		ExpirationType: req.GetString("expiration_type", ""),
		Lots:           int64(req.GetInt("quantity", 0)),
		StopPrice:      stopPrice,
	}
	if s := req.GetString("price", ""); s != "" {
		price, err := decimal.NewFromString(s)
		if err != nil {
			return mcp.NewToolResultError("invalid price: " + err.Error()), nil
		}
		order.Price = &price
	}
	if s := req.GetString("expire_date", ""); s != "" {
		expire, err := parseISO(s)
		if err != nil {
			return mcp.NewToolResultError("invalid expire_date: " + err.Error()), nil
		}
		order.ExpireDate = expire
	}

	result, err := r.svc.CreateStopOrder(ctx, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (r *Registry) cancelStopOrder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stopOrderID, err := req.RequireString("stop_order_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := r.svc.CancelStopOrder(ctx, stopOrderID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (r *Registry) findInstrument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	found, err := r.svc.FindInstrument(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"instruments": found})
}

func (r *Registry) getInstrumentByUID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uid, err := req.RequireString("uid")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inst, err := r.svc.GetInstrumentByID(ctx, uid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(inst)
}

func (r *Registry) getShares(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := r.svc.GetShares(ctx, req.GetInt("limit", defaultListLimit), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func (r *Registry) getBonds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := r.svc.GetBonds(ctx, req.GetInt("limit", defaultListLimit), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func (r *Registry) getEtfs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := r.svc.GetEtfs(ctx, req.GetInt("limit", defaultListLimit), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page)
}

func (r *Registry) clearInstrumentsCache(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dropped := r.svc.ClearInstrumentCache()
	return jsonResult(map[string]any{"cleared": true, "dropped_entries": dropped})
}
