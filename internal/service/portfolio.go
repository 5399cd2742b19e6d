package service

import (
	"context"

	"investmcp/internal/domain"
	"investmcp/internal/money"
)

// GetPortfolio returns every position in the account portfolio together
// with the portfolio totals. Each position is joined to its instrument
// metadata through the cache.
func (s *Service) GetPortfolio(ctx context.Context) (*domain.Portfolio, error) {
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.Portfolio(ctx, s.accountID)
	if err != nil {
		return nil, err
	}

	positions := make([]domain.PortfolioPosition, 0, len(resp.Positions))
	for _, p := range resp.Positions {
		name, ticker, err := s.cache.Info(ctx, p.InstrumentUid)
		if err != nil {
			return nil, err
		}

		currency := "rub"
		if p.AveragePositionPrice != nil {
			currency = p.AveragePositionPrice.Currency
		}

		positions = append(positions, domain.PortfolioPosition{
			InstrumentID:     p.InstrumentUid,
			InstrumentName:   name,
			InstrumentTicker: ticker,
			InstrumentType:   p.InstrumentType,
			Quantity:         money.QuotationToDecimalOrZero(p.Quantity),
			AveragePrice:     money.ToDecimalOrZero(p.AveragePositionPrice),
			CurrentPrice:     money.ToDecimalOrZero(p.CurrentPrice),
			ExpectedYield:    money.QuotationToDecimalOrZero(p.ExpectedYield),
			Currency:         currency,
			Blocked:          p.Blocked,
			AccruedInterest:  money.ToDecimal(p.CurrentNkd),
		})
	}

	return &domain.Portfolio{
		AccountID:         resp.AccountId,
		Positions:         positions,
		TotalValue:        money.ToDecimalOrZero(resp.TotalAmountPortfolio),
		TotalYieldPercent: money.QuotationToDecimalOrZero(resp.ExpectedYield),
		DailyYield:        money.ToDecimalOrZero(resp.DailyYield),
		DailyYieldPercent: money.QuotationToDecimalOrZero(resp.DailyYieldRelative),
	}, nil
}

// GetCashBalance returns free and blocked cash per currency.
func (s *Service) GetCashBalance(ctx context.Context) (*domain.CashBalance, error) {
	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.Positions(ctx, s.accountID)
	if err != nil {
		return nil, err
	}

	balance := &domain.CashBalance{
		Available: make([]domain.MoneyAmount, 0, len(resp.Money)),
		Blocked:   make([]domain.MoneyAmount, 0, len(resp.Blocked)),
	}
	for _, m := range resp.Money {
		balance.Available = append(balance.Available, domain.MoneyAmount{
			Currency: m.Currency,
			Value:    money.ToDecimalOrZero(m),
		})
	}
	for _, m := range resp.Blocked {
		balance.Blocked = append(balance.Blocked, domain.MoneyAmount{
			Currency: m.Currency,
			Value:    money.ToDecimalOrZero(m),
		})
	}
	return balance, nil
}
