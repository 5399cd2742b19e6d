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

const (
	defaultOrderBookDepth = 10
	maxOrderBookDepth     = 50
)

// GetLastPrices returns the most recent trade price for each requested
// instrument.
func (s *Service) GetLastPrices(ctx context.Context, instrumentIDs []string) ([]domain.LastPrice, error) {
	if len(instrumentIDs) == 0 {
		return nil, fmt.Errorf("at least one instrument id is required")
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	prices, err := sess.LastPrices(ctx, instrumentIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.LastPrice, 0, len(prices))
	for _, p := range prices {
		name, ticker, err := s.cache.Info(ctx, p.InstrumentUid)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LastPrice{
			InstrumentID:     p.InstrumentUid,
			InstrumentName:   name,
			InstrumentTicker: ticker,
			Price:            money.QuotationToDecimalOrZero(p.Price),
			Time:             tsTime(p.Time),
		})
	}
	return out, nil
}

// CandlesQuery selects a candle history window.
type CandlesQuery struct {
	InstrumentID string
	From         time.Time
	To           time.Time // zero means now
	Interval     string
}

// GetCandles returns historical candles for one instrument.
func (s *Service) GetCandles(ctx context.Context, q CandlesQuery) (*domain.CandleSeries, error) {
	interval, err := candleInterval(q.Interval)
	if err != nil {
		return nil, err
	}
	to := q.To
	if to.IsZero() {
		to = time.Now()
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	candles, err := sess.Candles(ctx, &pb.GetCandlesRequest{
		InstrumentId: q.InstrumentID,
		From:         timestamppb.New(q.From),
		To:           timestamppb.New(to),
		Interval:     interval,
	})
	if err != nil {
		return nil, err
	}

	name, ticker, err := s.cache.Info(ctx, q.InstrumentID)
	if err != nil {
		return nil, err
	}

	series := &domain.CandleSeries{
		InstrumentID:     q.InstrumentID,
		InstrumentName:   name,
		InstrumentTicker: ticker,
		Interval:         interval.String(),
		Candles:          make([]domain.Candle, 0, len(candles)),
	}
	for _, c := range candles {
		series.Candles = append(series.Candles, domain.Candle{
			Time:     tsTime(c.Time),
			Open:     money.QuotationToDecimalOrZero(c.Open),
			High:     money.QuotationToDecimalOrZero(c.High),
			Low:      money.QuotationToDecimalOrZero(c.Low),
			Close:    money.QuotationToDecimalOrZero(c.Close),
			Volume:   c.Volume,
			Complete: c.IsComplete,
		})
	}
	return series, nil
}

// GetOrderBook returns a depth-limited order book snapshot. A zero depth
// falls back to the default; the upstream maximum is enforced here so the
// call never fails on an oversized depth.
func (s *Service) GetOrderBook(ctx context.Context, instrumentID string, depth int32) (*domain.OrderBook, error) {
	if depth <= 0 {
		depth = defaultOrderBookDepth
	}
	if depth > maxOrderBookDepth {
		depth = maxOrderBookDepth
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.OrderBook(ctx, instrumentID, depth)
	if err != nil {
		return nil, err
	}

	name, ticker, err := s.cache.Info(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	book := &domain.OrderBook{
		InstrumentID:     instrumentID,
		InstrumentName:   name,
		InstrumentTicker: ticker,
		Depth:            resp.Depth,
		Bids:             orderBookLevels(resp.Bids),
		Asks:             orderBookLevels(resp.Asks),
		LastPrice:        money.QuotationToDecimal(resp.LastPrice),
		ClosePrice:       money.QuotationToDecimal(resp.ClosePrice),
		LimitUp:          money.QuotationToDecimal(resp.LimitUp),
		LimitDown:        money.QuotationToDecimal(resp.LimitDown),
	}
	return book, nil
}

func orderBookLevels(orders []*pb.Order) []domain.OrderBookLevel {
	levels := make([]domain.OrderBookLevel, 0, len(orders))
	for _, o := range orders {
		levels = append(levels, domain.OrderBookLevel{
			Price:    money.QuotationToDecimalOrZero(o.Price),
			Quantity: o.Quantity,
		})
	}
	return levels
}

// GetTradingStatus returns the current trading availability of one
// instrument.
func (s *Service) GetTradingStatus(ctx context.Context, instrumentID string) (*domain.TradingStatus, error) {
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.TradingStatus(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	name, ticker, err := s.cache.Info(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	return &domain.TradingStatus{
		InstrumentID:          instrumentID,
		InstrumentName:        name,
		InstrumentTicker:      ticker,
		Status:                resp.TradingStatus.String(),
		LimitOrdersAvailable:  resp.LimitOrderAvailableFlag,
		MarketOrdersAvailable: resp.MarketOrderAvailableFlag,
		APITradeAvailable:     resp.ApiTradeAvailableFlag,
	}, nil
}

// GetTradingSchedules returns exchange trading calendars for the given
// window. An empty exchange name means all exchanges.
func (s *Service) GetTradingSchedules(ctx context.Context, exchange string, from, to time.Time) ([]domain.TradingSchedule, error) {
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	schedules, err := sess.TradingSchedules(ctx, exchange, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradingSchedule, 0, len(schedules))
	for _, sch := range schedules {
		days := make([]domain.TradingDay, 0, len(sch.Days))
		for _, d := range sch.Days {
			days = append(days, domain.TradingDay{
				Date:         tsTime(d.Date),
				IsTradingDay: d.IsTradingDay,
				Start:        tsTimePtr(d.StartTime),
				End:          tsTimePtr(d.EndTime),
			})
		}
		out = append(out, domain.TradingSchedule{
			Exchange: sch.Exchange,
			Days:     days,
		})
	}
	return out, nil
}
