package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/shopspring/decimal"

	"investmcp/internal/domain"
	"investmcp/internal/money"
)

var orderDirections = map[string]pb.OrderDirection{
	"ORDER_DIRECTION_BUY":  pb.OrderDirection_ORDER_DIRECTION_BUY,
	"ORDER_DIRECTION_SELL": pb.OrderDirection_ORDER_DIRECTION_SELL,
	"buy":                  pb.OrderDirection_ORDER_DIRECTION_BUY,
	"sell":                 pb.OrderDirection_ORDER_DIRECTION_SELL,
}

var orderTypes = map[string]pb.OrderType{
	"ORDER_TYPE_LIMIT":  pb.OrderType_ORDER_TYPE_LIMIT,
	"ORDER_TYPE_MARKET": pb.OrderType_ORDER_TYPE_MARKET,
	"limit":             pb.OrderType_ORDER_TYPE_LIMIT,
	"market":            pb.OrderType_ORDER_TYPE_MARKET,
}

// GetOrders returns the active orders of the account.
func (s *Service) GetOrders(ctx context.Context) ([]domain.Order, error) {
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	states, err := sess.Orders(ctx, s.accountID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(states))
	for _, st := range states {
		name, ticker, err := s.cache.Info(ctx, st.InstrumentUid)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Order{
			ID:               st.OrderId,
			InstrumentID:     st.InstrumentUid,
			InstrumentName:   name,
			InstrumentTicker: ticker,
			Direction:        st.Direction.String(),
			Type:             st.OrderType.String(),
			Status:           st.ExecutionReportStatus.String(),
			LotsRequested:    st.LotsRequested,
			LotsExecuted:     st.LotsExecuted,
			InitialPrice:     money.ToDecimal(st.InitialSecurityPrice),
			ExecutedPrice:    money.ToDecimal(st.ExecutedOrderPrice),
			TotalAmount:      money.ToDecimal(st.TotalOrderAmount),
			Currency:         st.Currency,
			CreatedAt:        tsTime(st.OrderDate),
		})
	}
	return out, nil
}

// OrderRequest describes a new order to place.
type OrderRequest struct {
	InstrumentID string
	Direction    string
	Type         string
	Lots         int64
	Price        *decimal.Decimal // required for limit orders
}

// CreateOrder places an order. Each call generates its own idempotency key
// so an upstream retry cannot double-execute.
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*domain.OrderResult, error) {
	direction, ok := orderDirections[req.Direction]
	if !ok {
		return nil, fmt.Errorf("unknown order direction %q", req.Direction)
	}
	orderType, ok := orderTypes[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown order type %q", req.Type)
	}
	if req.Lots <= 0 {
		return nil, fmt.Errorf("lots must be positive, got %d", req.Lots)
	}
	if orderType == pb.OrderType_ORDER_TYPE_LIMIT && req.Price == nil {
		return nil, fmt.Errorf("limit order requires a price")
	}

	post := &pb.PostOrderRequest{
		InstrumentId: req.InstrumentID,
		Quantity:     req.Lots,
		Direction:    direction,
		OrderType:    orderType,
		AccountId:    s.accountID,
		OrderId:      uuid.NewString(),
	}
	if req.Price != nil {
		post.Price = money.ToQuotation(*req.Price)
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.PostOrder(ctx, post)
	if err != nil {
		return nil, err
	}

	name, ticker, err := s.cache.Info(ctx, req.InstrumentID)
	if err != nil {
		return nil, err
	}

	result := &domain.OrderResult{
		OrderID:          resp.OrderId,
		Status:           resp.ExecutionReportStatus.String(),
		LotsRequested:    resp.LotsRequested,
		LotsExecuted:     resp.LotsExecuted,
		TotalAmount:      money.ToDecimal(resp.TotalOrderAmount),
		Message:          resp.Message,
		InstrumentID:     req.InstrumentID,
		InstrumentName:   name,
		InstrumentTicker: ticker,
	}
	if resp.TotalOrderAmount != nil {
		result.Currency = resp.TotalOrderAmount.Currency
	}
	return result, nil
}

// CancelOrder cancels an active order by its id.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*domain.CancelResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.CancelOrder(ctx, s.accountID, orderID)
	if err != nil {
		return nil, err
	}
	return &domain.CancelResult{
		Cancelled: true,
		Time:      tsTime(resp.Time),
	}, nil
}
