package instrument

import (
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"investmcp/internal/domain"
)

// FromShare builds a domain Instrument from one shares-catalog record. The
// category is fixed by the catalog the record came from, never inferred.
func FromShare(s *pb.Share) domain.Instrument {
	return domain.Instrument{
		ID:            s.Uid,
		Name:          s.Name,
		Ticker:        s.Ticker,
		Currency:      s.Currency,
		Category:      domain.CategoryShare,
		Lot:           s.Lot,
		CountryOfRisk: s.CountryOfRisk,
		Sector:        s.Sector,
		ISIN:          s.Isin,
		TradingStatus: s.TradingStatus.String(),
		BuyAvailable:  s.BuyAvailableFlag,
		SellAvailable: s.SellAvailableFlag,
	}
}

// FromBond builds a domain Instrument from one bonds-catalog record.
func FromBond(b *pb.Bond) domain.Instrument {
	var maturity *time.Time
	if b.MaturityDate != nil {
		t := b.MaturityDate.AsTime()
		maturity = &t
	}
	return domain.Instrument{
		ID:            b.Uid,
		Name:          b.Name,
		Ticker:        b.Ticker,
		Currency:      b.Currency,
		Category:      domain.CategoryBond,
		Lot:           b.Lot,
		CountryOfRisk: b.CountryOfRisk,
		Sector:        b.Sector,
		ISIN:          b.Isin,
		TradingStatus: b.TradingStatus.String(),
		BuyAvailable:  b.BuyAvailableFlag,
		SellAvailable: b.SellAvailableFlag,
		MaturityDate:  maturity,
	}
}

// FromEtf builds a domain Instrument from one ETF-catalog record.
func FromEtf(e *pb.Etf) domain.Instrument {
	return domain.Instrument{
		ID:            e.Uid,
		Name:          e.Name,
		Ticker:        e.Ticker,
		Currency:      e.Currency,
		Category:      domain.CategoryEtf,
		Lot:           e.Lot,
		CountryOfRisk: e.CountryOfRisk,
		Sector:        e.Sector,
		ISIN:          e.Isin,
		TradingStatus: e.TradingStatus.String(),
		BuyAvailable:  e.BuyAvailableFlag,
		SellAvailable: e.SellAvailableFlag,
	}
}

// FromAsset builds a domain Instrument from the generic instrument record
// returned by point lookups. The category comes from the upstream type
// string and degrades to unknown.
func FromAsset(i *pb.Instrument) domain.Instrument {
	return domain.Instrument{
		ID:            i.Uid,
		Name:          i.Name,
		Ticker:        i.Ticker,
		Currency:      i.Currency,
		Category:      domain.ParseCategory(i.InstrumentType),
		Lot:           i.Lot,
		CountryOfRisk: i.CountryOfRisk,
		ISIN:          i.Isin,
		TradingStatus: i.TradingStatus.String(),
		BuyAvailable:  i.BuyAvailableFlag,
		SellAvailable: i.SellAvailableFlag,
	}
}

// FromShort builds a domain Instrument from one search result. Search
// results carry identification fields only.
func FromShort(i *pb.InstrumentShort) domain.Instrument {
	return domain.Instrument{
		ID:       i.Uid,
		Name:     i.Name,
		Ticker:   i.Ticker,
		Category: domain.ParseCategory(i.InstrumentType),
		ISIN:     i.Isin,
	}
}
