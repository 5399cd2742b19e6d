// Package instrument holds the in-memory instrument catalog: a cache over
// the shares, bonds, and ETF catalogs that is loaded once per process
// lifetime and answers name/ticker lookups for response enrichment, plus
// the pagination helper used by the catalog listing tools.
package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"investmcp/internal/broker"
	"investmcp/internal/domain"
)

// Sentinel metadata returned for identifiers absent from all catalogs.
// Absence is expected (delisted instruments, categories outside the three
// catalogs) and must never fail the enclosing call.
const (
	UnknownName   = "Unknown"
	UnknownTicker = "UNKNOWN"
)

// Cache is the process-wide instrument catalog. It starts empty and loads
// all three catalogs through one scoped session on first use; afterwards
// every lookup is in-memory. The load is all-or-nothing: on any failure the
// cache stays empty and the next call retries from scratch.
type Cache struct {
	sessions broker.SessionFactory
	logger   *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	byID   map[string]domain.Instrument
	loaded bool
	gen    uint64 // bumped by Clear so an in-flight load cannot undo it
}

// NewCache creates an empty cache backed by the given session factory.
func NewCache(sessions broker.SessionFactory, logger *slog.Logger) *Cache {
	return &Cache{
		sessions: sessions,
		logger:   logger,
		byID:     make(map[string]domain.Instrument),
	}
}

// EnsureLoaded loads the catalogs if the cache is empty. Concurrent callers
// racing on the empty state share a single in-flight load instead of each
// issuing their own three catalog requests. Once loaded it returns
// immediately without touching the upstream.
func (c *Cache) EnsureLoaded(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	_, err, _ := c.group.Do("load", func() (any, error) {
		return nil, c.load(ctx)
	})
	return err
}

func (c *Cache) load(ctx context.Context) error {
	// A waiter that got through between a finished load and its group key
	// expiring must not trigger a second fetch.
	c.mu.RLock()
	loaded := c.loaded
	gen := c.gen
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	sess, err := c.sessions(ctx)
	if err != nil {
		return fmt.Errorf("opening catalog session: %w", err)
	}
	defer sess.Close()

	c.logger.Info("loading instrument catalogs")

	shares, err := sess.Shares(ctx)
	if err != nil {
		return err
	}
	bonds, err := sess.Bonds(ctx)
	if err != nil {
		return err
	}
	etfs, err := sess.Etfs(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]domain.Instrument, len(shares)+len(bonds)+len(etfs))
	// Catalogs are keyed by unique identifier; if two catalogs ever carry
	// the same id, the later insertion wins.
	for _, s := range shares {
		inst := FromShare(s)
		byID[inst.ID] = inst
	}
	for _, b := range bonds {
		inst := FromBond(b)
		byID[inst.ID] = inst
	}
	for _, e := range etfs {
		inst := FromEtf(e)
		byID[inst.ID] = inst
	}

	c.mu.Lock()
	if c.gen != gen {
		// Clear ran while the catalogs were in flight; this snapshot is
		// stale and the next lookup must fetch fresh ones.
		c.mu.Unlock()
		c.logger.Info("instrument cache load discarded after clear")
		return nil
	}
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("instrument cache loaded",
		"instruments", len(byID),
		"shares", len(shares),
		"bonds", len(bonds),
		"etfs", len(etfs))
	return nil
}

// Info returns the display name and ticker for an identifier, loading the
// cache first if needed. A missing identifier resolves to the
// UnknownName/UnknownTicker sentinel, never an error; the only error source
// is a failed lazy load.
func (c *Cache) Info(ctx context.Context, id string) (name, ticker string, err error) {
	if err := c.EnsureLoaded(ctx); err != nil {
		return "", "", err
	}

	c.mu.RLock()
	inst, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return inst.Name, inst.Ticker, nil
	}

	c.logger.Warn("instrument not found in cache", "id", id)
	return UnknownName, UnknownTicker, nil
}

// Get returns the full cached record for an identifier.
func (c *Cache) Get(ctx context.Context, id string) (domain.Instrument, bool, error) {
	if err := c.EnsureLoaded(ctx); err != nil {
		return domain.Instrument{}, false, err
	}

	c.mu.RLock()
	inst, ok := c.byID[id]
	c.mu.RUnlock()
	return inst, ok, nil
}

// ByCategory returns all cached instruments of one category. Iteration
// order is unspecified and may differ between reloads.
func (c *Cache) ByCategory(ctx context.Context, category domain.Category) ([]domain.Instrument, error) {
	if err := c.EnsureLoaded(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []domain.Instrument
	for _, inst := range c.byID {
		if inst.Category == category {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Clear discards all entries and returns the cache to the unloaded state.
// The next lookup pays the full three-catalog reload.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.byID = make(map[string]domain.Instrument)
	c.loaded = false
	c.gen++
	c.mu.Unlock()

	c.logger.Info("instrument cache cleared")
}

// Size reports the number of cached instruments.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Loaded reports whether the catalogs have been loaded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
