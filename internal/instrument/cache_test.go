package instrument

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"investmcp/internal/broker"
	"investmcp/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededSimulator() *broker.Simulator {
	sim := broker.NewSimulator()
	for _, s := range []struct{ uid, name, ticker string }{
		{"share-1", "Sberbank", "SBER"},
		{"share-2", "Gazprom", "GAZP"},
		{"share-3", "Lukoil", "LKOH"},
		{"share-4", "Yandex", "YDEX"},
		{"share-5", "Rosneft", "ROSN"},
	} {
		sim.SharesData = append(sim.SharesData, &pb.Share{Uid: s.uid, Name: s.name, Ticker: s.ticker})
	}
	for _, b := range []struct{ uid, name, ticker string }{
		{"bond-1", "OFZ 26238", "SU26238RMFS4"},
		{"bond-2", "OFZ 26240", "SU26240RMFS0"},
		{"bond-3", "OFZ 26243", "SU26243RMFS4"},
	} {
		sim.BondsData = append(sim.BondsData, &pb.Bond{Uid: b.uid, Name: b.name, Ticker: b.ticker})
	}
	for _, e := range []struct{ uid, name, ticker string }{
		{"etf-1", "TMOS", "TMOS"},
		{"etf-2", "EQMX", "EQMX"},
	} {
		sim.EtfsData = append(sim.EtfsData, &pb.Etf{Uid: e.uid, Name: e.name, Ticker: e.ticker})
	}
	return sim
}

func TestCacheLoadsOnce(t *testing.T) {
	sim := seededSimulator()
	cache := NewCache(sim.Session, testLogger())
	ctx := context.Background()

	if cache.Loaded() {
		t.Fatal("cache reports loaded before first use")
	}
	if cache.Size() != 0 {
		t.Fatalf("cold cache Size = %d, want 0", cache.Size())
	}

	name, ticker, err := cache.Info(ctx, "share-1")
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if name != "Sberbank" || ticker != "SBER" {
		t.Errorf("Info(share-1) = (%q, %q), want (Sberbank, SBER)", name, ticker)
	}
	if cache.Size() != 10 {
		t.Errorf("Size = %d after load, want 10", cache.Size())
	}
	if sim.CatalogCalls != 3 {
		t.Errorf("CatalogCalls = %d after first load, want 3", sim.CatalogCalls)
	}

	// Further lookups are served from memory.
	for _, id := range []string{"bond-2", "etf-1", "share-5"} {
		if _, _, err := cache.Info(ctx, id); err != nil {
			t.Fatalf("Info(%s) returned error: %v", id, err)
		}
	}
	if sim.CatalogCalls != 3 {
		t.Errorf("CatalogCalls = %d after repeated lookups, want 3", sim.CatalogCalls)
	}
	if sim.SessionsClose != sim.SessionsOpen {
		t.Errorf("sessions open/close mismatch: %d opened, %d closed", sim.SessionsOpen, sim.SessionsClose)
	}
}

func TestCacheUnknownInstrument(t *testing.T) {
	cache := NewCache(seededSimulator().Session, testLogger())

	name, ticker, err := cache.Info(context.Background(), "no-such-uid")
	if err != nil {
		t.Fatalf("Info returned error for unknown id: %v", err)
	}
	if name != UnknownName || ticker != UnknownTicker {
		t.Errorf("Info(no-such-uid) = (%q, %q), want (%q, %q)", name, ticker, UnknownName, UnknownTicker)
	}
}

func TestCacheByCategory(t *testing.T) {
	cache := NewCache(seededSimulator().Session, testLogger())
	ctx := context.Background()

	for _, tt := range []struct {
		category domain.Category
		want     int
	}{
		{domain.CategoryShare, 5},
		{domain.CategoryBond, 3},
		{domain.CategoryEtf, 2},
	} {
		got, err := cache.ByCategory(ctx, tt.category)
		if err != nil {
			t.Fatalf("ByCategory(%s) returned error: %v", tt.category, err)
		}
		if len(got) != tt.want {
			t.Errorf("ByCategory(%s) = %d instruments, want %d", tt.category, len(got), tt.want)
		}
		for _, inst := range got {
			if inst.Category != tt.category {
				t.Errorf("ByCategory(%s) returned %s instrument %s", tt.category, inst.Category, inst.ID)
			}
		}
	}
}

func TestCacheClearReload(t *testing.T) {
	sim := seededSimulator()
	cache := NewCache(sim.Session, testLogger())
	ctx := context.Background()

	if _, _, err := cache.Info(ctx, "share-1"); err != nil {
		t.Fatalf("Info returned error: %v", err)
	}

	cache.Clear()
	if cache.Loaded() || cache.Size() != 0 {
		t.Fatalf("after Clear: loaded=%v size=%d, want unloaded and empty", cache.Loaded(), cache.Size())
	}

	// Catalog content changes between loads; the reload must see it.
	sim.SharesData = append(sim.SharesData, &pb.Share{Uid: "share-6", Name: "Novatek", Ticker: "NVTK"})

	name, _, err := cache.Info(ctx, "share-6")
	if err != nil {
		t.Fatalf("Info after reload returned error: %v", err)
	}
	if name != "Novatek" {
		t.Errorf("Info(share-6) name = %q, want Novatek", name)
	}
	if sim.CatalogCalls != 6 {
		t.Errorf("CatalogCalls = %d after clear+reload, want 6", sim.CatalogCalls)
	}
}

func TestCacheFailedLoadStaysEmpty(t *testing.T) {
	sim := seededSimulator()
	sim.Err = errors.New("upstream unavailable")
	cache := NewCache(sim.Session, testLogger())
	ctx := context.Background()

	if _, _, err := cache.Info(ctx, "share-1"); err == nil {
		t.Fatal("Info should fail while the upstream is down")
	}
	if cache.Loaded() || cache.Size() != 0 {
		t.Fatalf("after failed load: loaded=%v size=%d, want unloaded and empty", cache.Loaded(), cache.Size())
	}

	// Next call retries from scratch and succeeds.
	sim.Err = nil
	name, _, err := cache.Info(ctx, "share-1")
	if err != nil {
		t.Fatalf("Info after recovery returned error: %v", err)
	}
	if name != "Sberbank" {
		t.Errorf("Info(share-1) name = %q, want Sberbank", name)
	}
}

func TestCacheCancelledLoadStaysEmpty(t *testing.T) {
	sim := seededSimulator()
	// The dialer checks the caller's context before opening a connection;
	// the simulator does not, so the check lives in the factory here.
	sessions := func(ctx context.Context) (broker.Session, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return sim.Session(ctx)
	}
	cache := NewCache(sessions, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := cache.Info(ctx, "share-1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Info with cancelled context err = %v, want context.Canceled", err)
	}
	if cache.Loaded() || cache.Size() != 0 {
		t.Fatalf("after cancelled load: loaded=%v size=%d, want unloaded and empty", cache.Loaded(), cache.Size())
	}

	// A live context retries cleanly.
	name, _, err := cache.Info(context.Background(), "share-1")
	if err != nil {
		t.Fatalf("Info after cancellation returned error: %v", err)
	}
	if name != "Sberbank" {
		t.Errorf("Info(share-1) name = %q, want Sberbank", name)
	}
	if sim.CatalogCalls != 3 {
		t.Errorf("CatalogCalls = %d, want 3: the cancelled attempt must not reach the catalogs", sim.CatalogCalls)
	}
}

// clearDuringLoadSession clears the cache between the last catalog fetch
// and the load publishing its snapshot, once.
type clearDuringLoadSession struct {
	broker.Session
	cache   *Cache
	cleared *bool
}

func (s clearDuringLoadSession) Etfs(ctx context.Context) ([]*pb.Etf, error) {
	if !*s.cleared {
		*s.cleared = true
		s.cache.Clear()
	}
	return s.Session.Etfs(ctx)
}

func TestCacheClearDuringLoadWins(t *testing.T) {
	sim := seededSimulator()
	cleared := false
	var cache *Cache
	sessions := func(ctx context.Context) (broker.Session, error) {
		sess, err := sim.Session(ctx)
		if err != nil {
			return nil, err
		}
		return clearDuringLoadSession{Session: sess, cache: cache, cleared: &cleared}, nil
	}
	cache = NewCache(sessions, testLogger())
	ctx := context.Background()

	// The load whose catalogs were fetched before Clear must discard its
	// snapshot instead of publishing stale data over the reset.
	name, ticker, err := cache.Info(ctx, "share-1")
	if err != nil {
		t.Fatalf("Info returned error: %v", err)
	}
	if name != UnknownName || ticker != UnknownTicker {
		t.Errorf("Info during cleared load = (%q, %q), want sentinel pair", name, ticker)
	}
	if cache.Loaded() || cache.Size() != 0 {
		t.Fatalf("after clear during load: loaded=%v size=%d, want unloaded and empty", cache.Loaded(), cache.Size())
	}

	// The next lookup pays a fresh reload.
	name, _, err = cache.Info(ctx, "share-1")
	if err != nil {
		t.Fatalf("Info after reload returned error: %v", err)
	}
	if name != "Sberbank" {
		t.Errorf("Info(share-1) name = %q, want Sberbank", name)
	}
	if sim.CatalogCalls != 6 {
		t.Errorf("CatalogCalls = %d, want 6: one discarded load plus one fresh load", sim.CatalogCalls)
	}
}

func TestCacheConcurrentLoad(t *testing.T) {
	sim := seededSimulator()
	cache := NewCache(sim.Session, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = cache.Info(ctx, "share-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if sim.CatalogCalls != 3 {
		t.Errorf("CatalogCalls = %d under concurrent first use, want 3", sim.CatalogCalls)
	}
}
