// Package domain defines the outbound schema returned by the adapter's
// tools: instruments, portfolio state, operations history, market data,
// orders, and stop orders. All monetary fields use exact decimals.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category classifies a tradable instrument.
type Category string

const (
	CategoryShare   Category = "share"
	CategoryBond    Category = "bond"
	CategoryEtf     Category = "etf"
	CategoryUnknown Category = "unknown"
)

// ParseCategory maps a free-form type string to a Category, defaulting to
// CategoryUnknown for anything it does not recognise.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryShare, CategoryBond, CategoryEtf:
		return Category(s)
	}
	return CategoryUnknown
}

// Instrument is one tradable security from the brokerage catalog. ID is the
// stable unique identifier used to join market data and portfolio entries
// back to instrument metadata.
type Instrument struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Ticker        string     `json:"ticker"`
	Currency      string     `json:"currency"`
	Category      Category   `json:"category"`
	Lot           int32      `json:"lot,omitempty"`
	CountryOfRisk string     `json:"country_of_risk,omitempty"`
	Sector        string     `json:"sector,omitempty"`
	ISIN          string     `json:"isin,omitempty"`
	TradingStatus string     `json:"trading_status,omitempty"`
	BuyAvailable  bool       `json:"buy_available"`
	SellAvailable bool       `json:"sell_available"`
	MaturityDate  *time.Time `json:"maturity_date,omitempty"` // bonds only
}

// MoneyAmount is an exact decimal value in a single currency.
type MoneyAmount struct {
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
}

// PortfolioPosition is one holding in the account portfolio, enriched with
// instrument name and ticker.
type PortfolioPosition struct {
	InstrumentID     string           `json:"instrument_id"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentTicker string           `json:"instrument_ticker"`
	InstrumentType   string           `json:"instrument_type"`
	Quantity         decimal.Decimal  `json:"quantity"`
	AveragePrice     decimal.Decimal  `json:"average_price"`
	CurrentPrice     decimal.Decimal  `json:"current_price"`
	ExpectedYield    decimal.Decimal  `json:"expected_yield"`
	Currency         string           `json:"currency"`
	Blocked          bool             `json:"blocked"`
	AccruedInterest  *decimal.Decimal `json:"accrued_interest,omitempty"` // bonds only
}

// Portfolio is the full account portfolio snapshot.
type Portfolio struct {
	AccountID         string              `json:"account_id"`
	Positions         []PortfolioPosition `json:"positions"`
	TotalValue        decimal.Decimal     `json:"total_value"`
	TotalYieldPercent decimal.Decimal     `json:"total_yield_percent"`
	DailyYield        decimal.Decimal     `json:"daily_yield"`
	DailyYieldPercent decimal.Decimal     `json:"daily_yield_percent"`
}

// CashBalance reports free and blocked cash per currency.
type CashBalance struct {
	Available []MoneyAmount `json:"available"`
	Blocked   []MoneyAmount `json:"blocked"`
}

// Operation is one entry from the account operations history.
type Operation struct {
	ID               string           `json:"id"`
	Date             time.Time        `json:"date"`
	Type             string           `json:"type"`
	Description      string           `json:"description,omitempty"`
	InstrumentID     string           `json:"instrument_id,omitempty"`
	InstrumentName   string           `json:"instrument_name,omitempty"`
	InstrumentTicker string           `json:"instrument_ticker,omitempty"`
	InstrumentType   string           `json:"instrument_type,omitempty"`
	Payment          decimal.Decimal  `json:"payment"`
	Currency         string           `json:"currency"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	Quantity         int64            `json:"quantity,omitempty"`
	QuantityRest     int64            `json:"quantity_rest,omitempty"`
	State            string           `json:"state"`
}

// LastPrice is the most recent trade price of one instrument.
type LastPrice struct {
	InstrumentID     string          `json:"instrument_id"`
	InstrumentName   string          `json:"instrument_name"`
	InstrumentTicker string          `json:"instrument_ticker"`
	Price            decimal.Decimal `json:"price"`
	Time             time.Time       `json:"time"`
}

// Candle is one historical OHLCV candle.
type Candle struct {
	Time     time.Time       `json:"time"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   int64           `json:"volume"`
	Complete bool            `json:"complete"`
}

// CandleSeries is a candle history for one instrument and interval.
type CandleSeries struct {
	InstrumentID     string   `json:"instrument_id"`
	InstrumentName   string   `json:"instrument_name"`
	InstrumentTicker string   `json:"instrument_ticker"`
	Interval         string   `json:"interval"`
	Candles          []Candle `json:"candles"`
}

// OrderBookLevel is one price level of an order book side.
type OrderBookLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// OrderBook is a depth-limited snapshot of bids and asks.
type OrderBook struct {
	InstrumentID     string           `json:"instrument_id"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentTicker string           `json:"instrument_ticker"`
	Depth            int32            `json:"depth"`
	Bids             []OrderBookLevel `json:"bids"`
	Asks             []OrderBookLevel `json:"asks"`
	LastPrice        *decimal.Decimal `json:"last_price,omitempty"`
	ClosePrice       *decimal.Decimal `json:"close_price,omitempty"`
	LimitUp          *decimal.Decimal `json:"limit_up,omitempty"`
	LimitDown        *decimal.Decimal `json:"limit_down,omitempty"`
}

// TradingStatus is the current trading availability of one instrument.
type TradingStatus struct {
	InstrumentID          string `json:"instrument_id"`
	InstrumentName        string `json:"instrument_name"`
	InstrumentTicker      string `json:"instrument_ticker"`
	Status                string `json:"status"`
	LimitOrdersAvailable  bool   `json:"limit_orders_available"`
	MarketOrdersAvailable bool   `json:"market_orders_available"`
	APITradeAvailable     bool   `json:"api_trade_available"`
}

// TradingDay is one day of an exchange trading schedule.
type TradingDay struct {
	Date         time.Time  `json:"date"`
	IsTradingDay bool       `json:"is_trading_day"`
	Start        *time.Time `json:"start,omitempty"`
	End          *time.Time `json:"end,omitempty"`
}

// TradingSchedule is the trading calendar of one exchange.
type TradingSchedule struct {
	Exchange string       `json:"exchange"`
	Days     []TradingDay `json:"days"`
}

// Order is the state of one trading order, enriched with instrument
// metadata.
type Order struct {
	ID               string           `json:"id"`
	InstrumentID     string           `json:"instrument_id"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentTicker string           `json:"instrument_ticker"`
	Direction        string           `json:"direction"`
	Type             string           `json:"type"`
	Status           string           `json:"status"`
	LotsRequested    int64            `json:"lots_requested"`
	LotsExecuted     int64            `json:"lots_executed"`
	InitialPrice     *decimal.Decimal `json:"initial_price,omitempty"`
	ExecutedPrice    *decimal.Decimal `json:"executed_price,omitempty"`
	TotalAmount      *decimal.Decimal `json:"total_amount,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// OrderResult is the upstream acknowledgement of a newly placed order.
type OrderResult struct {
	OrderID          string           `json:"order_id"`
	Status           string           `json:"status"`
	LotsRequested    int64            `json:"lots_requested"`
	LotsExecuted     int64            `json:"lots_executed"`
	TotalAmount      *decimal.Decimal `json:"total_amount,omitempty"`
	Currency         string           `json:"currency,omitempty"`
	Message          string           `json:"message,omitempty"`
	InstrumentID     string           `json:"instrument_id"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentTicker string           `json:"instrument_ticker"`
}

// CancelResult reports a successful cancellation.
type CancelResult struct {
	Cancelled bool      `json:"cancelled"`
	Time      time.Time `json:"time"`
}

// StopOrder is one active stop order, enriched with instrument metadata.
type StopOrder struct {
	ID               string           `json:"id"`
	InstrumentID     string           `json:"instrument_id"`
	InstrumentName   string           `json:"instrument_name"`
	InstrumentTicker string           `json:"instrument_ticker"`
	Direction        string           `json:"direction"`
	Type             string           `json:"type"`
	Currency         string           `json:"currency,omitempty"`
	Lots             int64            `json:"lots"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	StopPrice        *decimal.Decimal `json:"stop_price,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	ExpiresAt        *time.Time       `json:"expires_at,omitempty"`
}

// StopOrderResult is the upstream acknowledgement of a new stop order.
type StopOrderResult struct {
	StopOrderID string `json:"stop_order_id"`
	RequestID   string `json:"request_id,omitempty"`
}
