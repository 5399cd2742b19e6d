package service

import (
	"context"
	"fmt"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"investmcp/internal/domain"
	"investmcp/internal/money"
)

// OperationsQuery selects a slice of the account operations history.
type OperationsQuery struct {
	From         time.Time
	To           time.Time // zero means now
	State        string    // optional, upstream enum name
	InstrumentID string    // optional filter
}

// GetOperations returns the account operations in [From, To], newest
// upstream ordering preserved, each joined to instrument metadata when the
// operation references an instrument.
func (s *Service) GetOperations(ctx context.Context, q OperationsQuery) ([]domain.Operation, error) {
	req := &pb.OperationsRequest{
		AccountId: s.accountID,
		From:      timestamppb.New(q.From),
		Figi:      q.InstrumentID,
	}
	to := q.To
	if to.IsZero() {
		to = time.Now()
	}
	req.To = timestamppb.New(to)

	if q.State != "" {
		v, ok := pb.OperationState_value[q.State]
		if !ok {
			return nil, fmt.Errorf("unknown operation state %q", q.State)
		}
		req.State = pb.OperationState(v)
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	ops, err := sess.Operations(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Operation, 0, len(ops))
	for _, op := range ops {
		o := domain.Operation{
			ID:           op.Id,
			Date:         tsTime(op.Date),
			Type:         op.OperationType.String(),
			Description:  op.Type,
			InstrumentID: op.InstrumentUid,
			Payment:      money.ToDecimalOrZero(op.Payment),
			Currency:     op.Currency,
			Price:        money.ToDecimal(op.Price),
			Quantity:     op.Quantity,
			QuantityRest: op.QuantityRest,
			State:        op.State.String(),
		}
		if op.InstrumentUid != "" {
			name, ticker, err := s.cache.Info(ctx, op.InstrumentUid)
			if err != nil {
				return nil, err
			}
			o.InstrumentName = name
			o.InstrumentTicker = ticker
			o.InstrumentType = op.InstrumentType
		}
		out = append(out, o)
	}
	return out, nil
}
