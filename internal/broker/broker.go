// Package broker defines the session boundary to the upstream brokerage
// API and provides implementations for the real gRPC service and an
// in-memory simulator.
package broker

import (
	"context"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
)

// Session is one scoped connection to the brokerage API. Every tool
// invocation acquires its own session and must Close it on all exit paths.
// Methods pass the upstream wire types through untranslated; mapping to the
// outbound schema happens in the service layer.
type Session interface {
	// Catalog and instrument lookup.
	Shares(ctx context.Context) ([]*pb.Share, error)
	Bonds(ctx context.Context) ([]*pb.Bond, error)
	Etfs(ctx context.Context) ([]*pb.Etf, error)
	FindInstrument(ctx context.Context, query string) ([]*pb.InstrumentShort, error)
	InstrumentByID(ctx context.Context, uid string) (*pb.Instrument, error)
	TradingSchedules(ctx context.Context, exchange string, from, to time.Time) ([]*pb.TradingSchedule, error)

	// Account state.
	Portfolio(ctx context.Context, accountID string) (*pb.PortfolioResponse, error)
	Positions(ctx context.Context, accountID string) (*pb.PositionsResponse, error)
	Operations(ctx context.Context, req *pb.OperationsRequest) ([]*pb.Operation, error)

	// Market data.
	LastPrices(ctx context.Context, instrumentIDs []string) ([]*pb.LastPrice, error)
	Candles(ctx context.Context, req *pb.GetCandlesRequest) ([]*pb.HistoricCandle, error)
	OrderBook(ctx context.Context, instrumentID string, depth int32) (*pb.GetOrderBookResponse, error)
	TradingStatus(ctx context.Context, instrumentID string) (*pb.GetTradingStatusResponse, error)

	// Orders.
	Orders(ctx context.Context, accountID string) ([]*pb.OrderState, error)
	PostOrder(ctx context.Context, req *pb.PostOrderRequest) (*pb.PostOrderResponse, error)
	CancelOrder(ctx context.Context, accountID, orderID string) (*pb.CancelOrderResponse, error)

	// Stop orders.
	StopOrders(ctx context.Context, accountID string) ([]*pb.StopOrder, error)
	PostStopOrder(ctx context.Context, req *pb.PostStopOrderRequest) (*pb.PostStopOrderResponse, error)
	CancelStopOrder(ctx context.Context, accountID, stopOrderID string) (*pb.CancelStopOrderResponse, error)

	Close() error
}

// SessionFactory opens a new Session. The session is owned by the caller
// for the lifetime of one call chain.
type SessionFactory func(ctx context.Context) (Session, error)
