package broker

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/timestamppb"

	"investmcp/internal/util"
)

// gRPC endpoints of the invest public API.
const (
	ProductionTarget = "invest-public-api.tinkoff.ru:443"
	SandboxTarget    = "sandbox-invest-public-api.tinkoff.ru:443"
)

// Compile-time interface check.
var _ Session = (*tinkoffSession)(nil)

// Dialer opens authenticated sessions against the invest API. One token
// bucket is shared by every session it creates, so concurrent tool calls
// stay inside the upstream per-minute quota together.
type Dialer struct {
	target  string
	token   string
	appName string
	limiter *util.RateLimiter
}

// NewDialer creates a Dialer for the given endpoint and credentials.
func NewDialer(target, token, appName string, requestsPerMinute int) *Dialer {
	return &Dialer{
		target:  target,
		token:   token,
		appName: appName,
		limiter: util.NewRateLimiter(requestsPerMinute),
	}
}

// Session dials a new connection. The returned session owns the connection
// and releases it on Close.
func (d *Dialer) Session(_ context.Context) (Session, error) {
	conn, err := grpc.NewClient(d.target,
		grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", d.target, err)
	}
	return &tinkoffSession{conn: conn, dialer: d}, nil
}

type tinkoffSession struct {
	conn   *grpc.ClientConn
	dialer *Dialer
}

// begin waits for a rate-limit token and attaches auth metadata.
func (s *tinkoffSession) begin(ctx context.Context) (context.Context, error) {
	if err := s.dialer.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return metadata.AppendToOutgoingContext(ctx,
		"authorization", "Bearer "+s.dialer.token,
		"x-app-name", s.dialer.appName,
	), nil
}

func (s *tinkoffSession) Close() error {
	return s.conn.Close()
}

func (s *tinkoffSession) Shares(ctx context.Context) ([]*pb.Share, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).Shares(ctx, &pb.InstrumentsRequest{
		InstrumentStatus: pb.InstrumentStatus_INSTRUMENT_STATUS_BASE,
	})
	if err != nil {
		return nil, fmt.Errorf("shares catalog: %w", err)
	}
	return resp.Instruments, nil
}

func (s *tinkoffSession) Bonds(ctx context.Context) ([]*pb.Bond, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).Bonds(ctx, &pb.InstrumentsRequest{
		InstrumentStatus: pb.InstrumentStatus_INSTRUMENT_STATUS_BASE,
	})
	if err != nil {
		return nil, fmt.Errorf("bonds catalog: %w", err)
	}
	return resp.Instruments, nil
}

func (s *tinkoffSession) Etfs(ctx context.Context) ([]*pb.Etf, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).Etfs(ctx, &pb.InstrumentsRequest{
		InstrumentStatus: pb.InstrumentStatus_INSTRUMENT_STATUS_BASE,
	})
	if err != nil {
		return nil, fmt.Errorf("etfs catalog: %w", err)
	}
	return resp.Instruments, nil
}

func (s *tinkoffSession) FindInstrument(ctx context.Context, query string) ([]*pb.InstrumentShort, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).FindInstrument(ctx, &pb.FindInstrumentRequest{
		Query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("finding instrument %q: %w", query, err)
	}
	return resp.Instruments, nil
}

func (s *tinkoffSession) InstrumentByID(ctx context.Context, uid string) (*pb.Instrument, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).GetInstrumentBy(ctx, &pb.InstrumentRequest{
		IdType: pb.InstrumentIdType_INSTRUMENT_ID_TYPE_UID,
		Id:     uid,
	})
	if err != nil {
		return nil, fmt.Errorf("getting instrument %s: %w", uid, err)
	}
	return resp.Instrument, nil
}

func (s *tinkoffSession) TradingSchedules(ctx context.Context, exchange string, from, to time.Time) ([]*pb.TradingSchedule, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewInstrumentsServiceClient(s.conn).TradingSchedules(ctx, &pb.TradingSchedulesRequest{
		Exchange: exchange,
		From:     timestamppb.New(from),
		To:       timestamppb.New(to),
	})
	if err != nil {
		return nil, fmt.Errorf("trading schedules for %s: %w", exchange, err)
	}
	return resp.Exchanges, nil
}

func (s *tinkoffSession) Portfolio(ctx context.Context, accountID string) (*pb.PortfolioResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOperationsServiceClient(s.conn).GetPortfolio(ctx, &pb.PortfolioRequest{
		AccountId: accountID,
	})
	if err != nil {
		return nil, fmt.Errorf("portfolio: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) Positions(ctx context.Context, accountID string) (*pb.PositionsResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOperationsServiceClient(s.conn).GetPositions(ctx, &pb.PositionsRequest{
		AccountId: accountID,
	})
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) Operations(ctx context.Context, req *pb.OperationsRequest) ([]*pb.Operation, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOperationsServiceClient(s.conn).GetOperations(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("operations: %w", err)
	}
	return resp.Operations, nil
}

func (s *tinkoffSession) LastPrices(ctx context.Context, instrumentIDs []string) ([]*pb.LastPrice, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewMarketDataServiceClient(s.conn).GetLastPrices(ctx, &pb.GetLastPricesRequest{
		InstrumentId: instrumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("last prices: %w", err)
	}
	return resp.LastPrices, nil
}

func (s *tinkoffSession) Candles(ctx context.Context, req *pb.GetCandlesRequest) ([]*pb.HistoricCandle, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewMarketDataServiceClient(s.conn).GetCandles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("candles: %w", err)
	}
	return resp.Candles, nil
}

func (s *tinkoffSession) OrderBook(ctx context.Context, instrumentID string, depth int32) (*pb.GetOrderBookResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewMarketDataServiceClient(s.conn).GetOrderBook(ctx, &pb.GetOrderBookRequest{
		InstrumentId: instrumentID,
		Depth:        depth,
	})
	if err != nil {
		return nil, fmt.Errorf("order book: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) TradingStatus(ctx context.Context, instrumentID string) (*pb.GetTradingStatusResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewMarketDataServiceClient(s.conn).GetTradingStatus(ctx, &pb.GetTradingStatusRequest{
		InstrumentId: instrumentID,
	})
	if err != nil {
		return nil, fmt.Errorf("trading status: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) Orders(ctx context.Context, accountID string) ([]*pb.OrderState, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOrdersServiceClient(s.conn).GetOrders(ctx, &pb.GetOrdersRequest{
		AccountId: accountID,
	})
	if err != nil {
		return nil, fmt.Errorf("orders: %w", err)
	}
	return resp.Orders, nil
}

func (s *tinkoffSession) PostOrder(ctx context.Context, req *pb.PostOrderRequest) (*pb.PostOrderResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOrdersServiceClient(s.conn).PostOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("posting order: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) CancelOrder(ctx context.Context, accountID, orderID string) (*pb.CancelOrderResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewOrdersServiceClient(s.conn).CancelOrder(ctx, &pb.CancelOrderRequest{
		AccountId: accountID,
		OrderId:   orderID,
	})
	if err != nil {
		return nil, fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	return resp, nil
}

func (s *tinkoffSession) StopOrders(ctx context.Context, accountID string) ([]*pb.StopOrder, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewStopOrdersServiceClient(s.conn).GetStopOrders(ctx, &pb.GetStopOrdersRequest{
		AccountId: accountID,
	})
	if err != nil {
		return nil, fmt.Errorf("stop orders: %w", err)
	}
	return resp.StopOrders, nil
}

func (s *tinkoffSession) PostStopOrder(ctx context.Context, req *pb.PostStopOrderRequest) (*pb.PostStopOrderResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewStopOrdersServiceClient(s.conn).PostStopOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("posting stop order: %w", err)
	}
	return resp, nil
}

func (s *tinkoffSession) CancelStopOrder(ctx context.Context, accountID, stopOrderID string) (*pb.CancelStopOrderResponse, error) {
	ctx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := pb.NewStopOrdersServiceClient(s.conn).CancelStopOrder(ctx, &pb.CancelStopOrderRequest{
		AccountId:   accountID,
		StopOrderId: stopOrderID,
	})
	if err != nil {
		return nil, fmt.Errorf("cancelling stop order %s: %w", stopOrderID, err)
	}
	return resp, nil
}
