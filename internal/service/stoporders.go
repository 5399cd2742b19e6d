package service

import (
	"context"
	"fmt"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/timestamppb"

	"investmcp/internal/domain"
	"investmcp/internal/money"
)

var stopOrderDirections = map[string]pb.StopOrderDirection{
	"STOP_ORDER_DIRECTION_BUY":  pb.StopOrderDirection_STOP_ORDER_DIRECTION_BUY,
	"STOP_ORDER_DIRECTION_SELL": pb.StopOrderDirection_STOP_ORDER_DIRECTION_SELL,
	"buy":                       pb.StopOrderDirection_STOP_ORDER_DIRECTION_BUY,
	"sell":                      pb.StopOrderDirection_STOP_ORDER_DIRECTION_SELL,
}

var stopOrderTypes = map[string]pb.StopOrderType{
	"STOP_ORDER_TYPE_TAKE_PROFIT": pb.StopOrderType_STOP_ORDER_TYPE_TAKE_PROFIT,
	"STOP_ORDER_TYPE_STOP_LOSS":   pb.StopOrderType_STOP_ORDER_TYPE_STOP_LOSS,
	"STOP_ORDER_TYPE_STOP_LIMIT":  pb.StopOrderType_STOP_ORDER_TYPE_STOP_LIMIT,
	"take_profit":                 pb.StopOrderType_STOP_ORDER_TYPE_TAKE_PROFIT,
	"stop_loss":                   pb.StopOrderType_STOP_ORDER_TYPE_STOP_LOSS,
	"stop_limit":                  pb.StopOrderType_STOP_ORDER_TYPE_STOP_LIMIT,
}

var stopOrderExpirations = map[string]pb.StopOrderExpirationType{
	"STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL": pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL,
	"STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_DATE":   pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_DATE,
	"good_till_cancel":                            pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL,
	"good_till_date":                              pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_DATE,
}

// GetStopOrders returns the active stop orders of the account.
func (s *Service) GetStopOrders(ctx context.Context) ([]domain.StopOrder, error) {
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	orders, err := sess.StopOrders(ctx, s.accountID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.StopOrder, 0, len(orders))
	for _, so := range orders {
		name, ticker, err := s.cache.Info(ctx, so.InstrumentUid)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.StopOrder{
			ID:               so.StopOrderId,
			InstrumentID:     so.InstrumentUid,
			InstrumentName:   name,
			InstrumentTicker: ticker,
			Direction:        so.Direction.String(),
			Type:             so.OrderType.String(),
			Currency:         so.Currency,
			Lots:             so.Lots,
			Price:            money.ToDecimal(so.Price),
			StopPrice:        money.ToDecimal(so.StopPrice),
			CreatedAt:        tsTime(so.CreateDate),
			ExpiresAt:        tsTimePtr(so.ExpirationTime),
		})
	}
	return out, nil
}

// StopOrderRequest describes a new stop order.
type StopOrderRequest struct {
	InstrumentID   string
	Direction      string
	Type           string
	ExpirationType string // defaults to good till cancel
	Lots           int64
	StopPrice      decimal.Decimal  // activation price
	Price          *decimal.Decimal // execution price for stop limit orders
	ExpireDate     time.Time        // required for good till date
}

// CreateStopOrder places a stop order.
func (s *Service) CreateStopOrder(ctx context.Context, req StopOrderRequest) (*domain.StopOrderResult, error) {
	direction, ok := stopOrderDirections[req.Direction]
	if !ok {
		return nil, fmt.Errorf("unknown stop order direction %q", req.Direction)
	}
	orderType, ok := stopOrderTypes[req.Type]
	if !ok {
		return nil, fmt.Errorf("unknown stop order type %q", req.Type)
	}
	expiration := pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_CANCEL
	if req.ExpirationType != "" {
		expiration, ok = stopOrderExpirations[req.ExpirationType]
		if !ok {
			return nil, fmt.Errorf("unknown stop order expiration type %q", req.ExpirationType)
		}
	}
	if req.Lots <= 0 {
		return nil, fmt.Errorf("lots must be positive, got %d", req.Lots)
	}
	if orderType == pb.StopOrderType_STOP_ORDER_TYPE_STOP_LIMIT && req.Price == nil {
		return nil, fmt.Errorf("stop limit order requires an execution price")
	}

	post := &pb.PostStopOrderRequest{
		InstrumentId:   req.InstrumentID,
		Quantity:       req.Lots,
		Direction:      direction,
		StopOrderType:  orderType,
		ExpirationType: expiration,
		AccountId:      s.accountID,
		StopPrice:      money.ToQuotation(req.StopPrice),
	}
	if req.Price != nil {
		post.Price = money.ToQuotation(*req.Price)
	}
	if expiration == pb.StopOrderExpirationType_STOP_ORDER_EXPIRATION_TYPE_GOOD_TILL_DATE {
		if req.ExpireDate.IsZero() {
			return nil, fmt.Errorf("good till date stop order requires an expire date")
		}
		post.ExpireDate = timestamppb.New(req.ExpireDate)
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.PostStopOrder(ctx, post)
	if err != nil {
		return nil, err
	}
	return &domain.StopOrderResult{
		StopOrderID: resp.StopOrderId,
		RequestID:   resp.OrderRequestId,
	}, nil
}

// CancelStopOrder cancels an active stop order by its id.
func (s *Service) CancelStopOrder(ctx context.Context, stopOrderID string) (*domain.CancelResult, error) {
	if stopOrderID == "" {
		return nil, fmt.Errorf("stop order id is required")
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.CancelStopOrder(ctx, s.accountID, stopOrderID)
	if err != nil {
		return nil, err
	}
	return &domain.CancelResult{
		Cancelled: true,
		Time:      tsTime(resp.Time),
	}, nil
}
