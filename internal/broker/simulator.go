package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Compile-time interface check.
var _ Session = (*simSession)(nil)

// Simulator implements the session boundary entirely in memory. It backs
// tests and offline runs of the diagnostic CLI: catalogs and canned
// responses are seeded by the caller, and request counters expose how many
// upstream calls were served.
type Simulator struct {
	mu sync.Mutex

	SharesData []*pb.Share
	BondsData  []*pb.Bond
	EtfsData   []*pb.Etf

	FindResults       []*pb.InstrumentShort
	InstrumentData    *pb.Instrument
	SchedulesData     []*pb.TradingSchedule
	PortfolioData     *pb.PortfolioResponse
	PositionsData     *pb.PositionsResponse
	OperationsData    []*pb.Operation
	LastPricesData    []*pb.LastPrice
	CandlesData       []*pb.HistoricCandle
	OrderBookData     *pb.GetOrderBookResponse
	TradingStatusData *pb.GetTradingStatusResponse
	OrdersData        []*pb.OrderState
	StopOrdersData    []*pb.StopOrder

	// Err, when set, is returned by every subsequent call.
	Err error

	CatalogCalls  int // shares+bonds+etfs requests served
	SessionsOpen  int
	SessionsClose int
}

// NewSimulator creates an empty Simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Session opens a new in-memory session. It matches the SessionFactory
// signature so a *Simulator can stand in for a *Dialer.
func (s *Simulator) Session(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SessionsOpen++
	return &simSession{sim: s}, nil
}

type simSession struct {
	sim *Simulator
}

func (s *simSession) Close() error {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	s.sim.SessionsClose++
	return nil
}

func (s *simSession) Shares(_ context.Context) ([]*pb.Share, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	s.sim.CatalogCalls++
	return s.sim.SharesData, s.sim.Err
}

func (s *simSession) Bonds(_ context.Context) ([]*pb.Bond, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	s.sim.CatalogCalls++
	return s.sim.BondsData, s.sim.Err
}

func (s *simSession) Etfs(_ context.Context) ([]*pb.Etf, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	s.sim.CatalogCalls++
	return s.sim.EtfsData, s.sim.Err
}

func (s *simSession) FindInstrument(_ context.Context, _ string) ([]*pb.InstrumentShort, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.FindResults, s.sim.Err
}

func (s *simSession) InstrumentByID(_ context.Context, uid string) (*pb.Instrument, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	if s.sim.InstrumentData == nil {
		return nil, fmt.Errorf("instrument %s not found", uid)
	}
	return s.sim.InstrumentData, nil
}

func (s *simSession) TradingSchedules(_ context.Context, _ string, _, _ time.Time) ([]*pb.TradingSchedule, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.SchedulesData, s.sim.Err
}

func (s *simSession) Portfolio(_ context.Context, _ string) (*pb.PortfolioResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.PortfolioData, s.sim.Err
}

func (s *simSession) Positions(_ context.Context, _ string) (*pb.PositionsResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.PositionsData, s.sim.Err
}

func (s *simSession) Operations(_ context.Context, _ *pb.OperationsRequest) ([]*pb.Operation, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.OperationsData, s.sim.Err
}

func (s *simSession) LastPrices(_ context.Context, _ []string) ([]*pb.LastPrice, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.LastPricesData, s.sim.Err
}

func (s *simSession) Candles(_ context.Context, _ *pb.GetCandlesRequest) ([]*pb.HistoricCandle, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.CandlesData, s.sim.Err
}

func (s *simSession) OrderBook(_ context.Context, instrumentID string, depth int32) (*pb.GetOrderBookResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	if s.sim.OrderBookData != nil {
		return s.sim.OrderBookData, nil
	}
	return &pb.GetOrderBookResponse{InstrumentUid: instrumentID, Depth: depth}, nil
}

func (s *simSession) TradingStatus(_ context.Context, instrumentID string) (*pb.GetTradingStatusResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	if s.sim.TradingStatusData != nil {
		return s.sim.TradingStatusData, nil
	}
	return &pb.GetTradingStatusResponse{InstrumentUid: instrumentID}, nil
}

func (s *simSession) Orders(_ context.Context, _ string) ([]*pb.OrderState, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.OrdersData, s.sim.Err
}

func (s *simSession) PostOrder(_ context.Context, req *pb.PostOrderRequest) (*pb.PostOrderResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	return &pb.PostOrderResponse{
		OrderId:               "sim-" + req.OrderId,
		ExecutionReportStatus: pb.OrderExecutionReportStatus_EXECUTION_REPORT_STATUS_NEW,
		LotsRequested:         req.Quantity,
		InstrumentUid:         req.InstrumentId,
	}, nil
}

func (s *simSession) CancelOrder(_ context.Context, _, _ string) (*pb.CancelOrderResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	return &pb.CancelOrderResponse{Time: timestamppb.Now()}, nil
}

func (s *simSession) StopOrders(_ context.Context, _ string) ([]*pb.StopOrder, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	return s.sim.StopOrdersData, s.sim.Err
}

func (s *simSession) PostStopOrder(_ context.Context, _ *pb.PostStopOrderRequest) (*pb.PostStopOrderResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	return &pb.PostStopOrderResponse{StopOrderId: "sim-stop-order"}, nil
}

func (s *simSession) CancelStopOrder(_ context.Context, _, _ string) (*pb.CancelStopOrderResponse, error) {
	s.sim.mu.Lock()
	defer s.sim.mu.Unlock()
	if s.sim.Err != nil {
		return nil, s.sim.Err
	}
	return &pb.CancelStopOrderResponse{Time: timestamppb.Now()}, nil
}
