// One-shot tool: resolve a ticker or name against the live catalogs and
// print what the API knows about it. Handy for diagnosing "Unknown"
// entries in tool responses.
//
// Usage:
//
//	go run cmd/check-instrument/main.go SBER
//	go run cmd/check-instrument/main.go -sim SBER   # offline, canned data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	pb "github.com/russianinvestments/invest-api-go-sdk/proto"

	"investmcp/internal/broker"
	"investmcp/internal/config"
	"investmcp/internal/instrument"
	"investmcp/internal/service"
	"investmcp/internal/util"
)

func main() {
	simMode := flag.Bool("sim", false, "use the in-memory simulator instead of the live API")
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: check-instrument [-sim] QUERY")
		os.Exit(1)
	}
	query := flag.Arg(0)

	logger := util.NewLogger("warn", "text")

	var sessions broker.SessionFactory
	mode := "sim"
	if *simMode {
		sessions = seededSimulator().Session
	} else {
		cfgPath := "config/investmcp.yaml"
		if p := os.Getenv("INVESTMCP_CONFIG"); p != "" {
			cfgPath = p
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		target := broker.SandboxTarget
		if cfg.Invest.Mode == config.ModeProduction {
			target = broker.ProductionTarget
		}
		sessions = broker.NewDialer(target, cfg.Invest.Token, cfg.Invest.AppName, cfg.Limits.RequestsPerMinute).Session
		mode = cfg.Invest.Mode
	}

	cache := instrument.NewCache(sessions, logger)
	svc := service.New("", sessions, cache, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	fmt.Printf("=== search %q (%s) ===\n\n", query, mode)

	found, err := svc.FindInstrument(ctx, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search: %v\n", err)
		os.Exit(1)
	}
	if len(found) == 0 {
		fmt.Println("no matches")
		return
	}
	for _, inst := range found {
		fmt.Printf("  %-12s %-8s %-8s %s\n", inst.Ticker, inst.Category, inst.Currency, inst.Name)
	}

	// Full lookup and market state for the first match.
	first := found[0]
	fmt.Printf("\n--- %s (%s) ---\n", first.Ticker, first.ID)

	full, err := svc.GetInstrumentByID(ctx, first.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  name:     %s\n", full.Name)
	fmt.Printf("  isin:     %s\n", full.ISIN)
	fmt.Printf("  lot:      %d\n", full.Lot)
	fmt.Printf("  currency: %s\n", full.Currency)
	fmt.Printf("  status:   %s\n", full.TradingStatus)

	status, err := svc.GetTradingStatus(ctx, first.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trading status: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  trading:  %s (limit=%v market=%v api=%v)\n",
		status.Status, status.LimitOrdersAvailable, status.MarketOrdersAvailable, status.APITradeAvailable)

	prices, err := svc.GetLastPrices(ctx, []string{first.ID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "last price: %v\n", err)
		os.Exit(1)
	}
	for _, p := range prices {
		fmt.Printf("  last:     %s @ %s\n", p.Price, p.Time.Format(time.RFC3339))
	}

	fmt.Printf("\ncached instruments: %d\n", cache.Size())
}

// seededSimulator backs -sim runs with a small canned catalog.
func seededSimulator() *broker.Simulator {
	sim := broker.NewSimulator()
	sim.SharesData = []*pb.Share{
		{Uid: "share-sber", Name: "Sberbank", Ticker: "SBER", Currency: "rub", Lot: 10},
		{Uid: "share-gazp", Name: "Gazprom", Ticker: "GAZP", Currency: "rub", Lot: 10},
	}
	sim.EtfsData = []*pb.Etf{
		{Uid: "etf-tmos", Name: "TMOS", Ticker: "TMOS", Currency: "rub", Lot: 1},
	}
	sim.FindResults = []*pb.InstrumentShort{
		{Uid: "share-sber", Name: "Sberbank", Ticker: "SBER", InstrumentType: "share", Isin: "RU0009029540"},
	}
	sim.LastPricesData = []*pb.LastPrice{
		{InstrumentUid: "share-sber", Price: &pb.Quotation{Units: 305, Nano: 120000000}},
	}
	return sim
}
