// Package service maps tool operations onto upstream RPC calls and
// translates the responses into the outbound schema. Every response item
// that carries an instrument identifier is enriched with the display name
// and ticker from the instrument cache; a cache miss degrades to the
// sentinel pair instead of failing the call.
package service

import (
	"fmt"
	"log/slog"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"investmcp/internal/broker"
	"investmcp/internal/instrument"
)

// Service executes tool operations against the brokerage API. Each
// operation opens its own scoped session and releases it before returning.
type Service struct {
	accountID string
	sessions  broker.SessionFactory
	cache     *instrument.Cache
	logger    *slog.Logger
}

// New creates a Service for one account. The cache handle is shared with
// the rest of the process; the Service never owns or replaces it.
func New(accountID string, sessions broker.SessionFactory, cache *instrument.Cache, logger *slog.Logger) *Service {
	return &Service{
		accountID: accountID,
		sessions:  sessions,
		cache:     cache,
		logger:    logger,
	}
}

// candleIntervals maps both the full upstream enum names and short aliases
// to the wire enum.
var candleIntervals = map[string]pb.CandleInterval{
	"CANDLE_INTERVAL_1_MIN":  pb.CandleInterval_CANDLE_INTERVAL_1_MIN,
	"CANDLE_INTERVAL_5_MIN":  pb.CandleInterval_CANDLE_INTERVAL_5_MIN,
	"CANDLE_INTERVAL_15_MIN": pb.CandleInterval_CANDLE_INTERVAL_15_MIN,
	"CANDLE_INTERVAL_HOUR":   pb.CandleInterval_CANDLE_INTERVAL_HOUR,
	"CANDLE_INTERVAL_DAY":    pb.CandleInterval_CANDLE_INTERVAL_DAY,
	"1min":                   pb.CandleInterval_CANDLE_INTERVAL_1_MIN,
	"5min":                   pb.CandleInterval_CANDLE_INTERVAL_5_MIN,
	"15min":                  pb.CandleInterval_CANDLE_INTERVAL_15_MIN,
	"hour":                   pb.CandleInterval_CANDLE_INTERVAL_HOUR,
	"day":                    pb.CandleInterval_CANDLE_INTERVAL_DAY,
}

func candleInterval(name string) (pb.CandleInterval, error) {
	iv, ok := candleIntervals[name]
	if !ok {
		return 0, fmt.Errorf("unsupported candle interval %q", name)
	}
	return iv, nil
}

func tsTime(ts *timestamppb.Timestamp) time.Time {
	if ts == nil {
		return time.Time{}
	}
	return ts.AsTime()
}

func tsTimePtr(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}
