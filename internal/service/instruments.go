package service

import (
	"context"
	"fmt"
	"sort"

	"investmcp/internal/domain"
	"investmcp/internal/instrument"
)

// listCategory returns one page of the cached catalog for a category.
// The listing is sorted by ticker then id so pages stay stable between
// calls against the same cache generation.
func (s *Service) listCategory(ctx context.Context, category domain.Category, limit, offset int) (instrument.Page[domain.Instrument], error) {
	items, err := s.cache.ByCategory(ctx, category)
	if err != nil {
		return instrument.Page[domain.Instrument]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Ticker != items[j].Ticker {
			return items[i].Ticker < items[j].Ticker
		}
		return items[i].ID < items[j].ID
	})
	return instrument.Paginate(items, limit, offset)
}

// GetShares returns one page of the tradable shares catalog.
func (s *Service) GetShares(ctx context.Context, limit, offset int) (instrument.Page[domain.Instrument], error) {
	return s.listCategory(ctx, domain.CategoryShare, limit, offset)
}

// GetBonds returns one page of the tradable bonds catalog.
func (s *Service) GetBonds(ctx context.Context, limit, offset int) (instrument.Page[domain.Instrument], error) {
	return s.listCategory(ctx, domain.CategoryBond, limit, offset)
}

// GetEtfs returns one page of the tradable ETFs catalog.
func (s *Service) GetEtfs(ctx context.Context, limit, offset int) (instrument.Page[domain.Instrument], error) {
	return s.listCategory(ctx, domain.CategoryEtf, limit, offset)
}

// FindInstrument searches instruments by ticker, name or isin fragment.
func (s *Service) FindInstrument(ctx context.Context, query string) ([]domain.Instrument, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	found, err := sess.FindInstrument(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Instrument, 0, len(found))
	for _, f := range found {
		out = append(out, instrument.FromShort(f))
	}
	return out, nil
}

// GetInstrumentByID returns the full description of one instrument. The
// cache is consulted first; an uncached id falls through to the upstream
// lookup so freshly listed instruments still resolve.
func (s *Service) GetInstrumentByID(ctx context.Context, uid string) (*domain.Instrument, error) {
	if uid == "" {
		return nil, fmt.Errorf("instrument id is required")
	}

	if cached, ok, err := s.cache.Get(ctx, uid); err != nil {
		return nil, err
	} else if ok {
		return &cached, nil
	}

	sess, err := s.sessions(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	resp, err := sess.InstrumentByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	inst := instrument.FromAsset(resp)
	return &inst, nil
}

// ClearInstrumentCache drops the cached catalogs. The next lookup loads
// them again.
func (s *Service) ClearInstrumentCache() int {
	size := s.cache.Size()
	s.cache.Clear()
	s.logger.Info("instrument cache cleared", "entries", size)
	return size
}
