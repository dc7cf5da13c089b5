package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/joho/godotenv"

	"github.com/brandonschabell/alphaflow/internal/analyzer"
	"github.com/brandonschabell/alphaflow/internal/broker"
	"github.com/brandonschabell/alphaflow/internal/engine"
	"github.com/brandonschabell/alphaflow/internal/feed"
	"github.com/brandonschabell/alphaflow/internal/ops"
	"github.com/brandonschabell/alphaflow/internal/store"
	"github.com/brandonschabell/alphaflow/internal/strategy"
	"github.com/brandonschabell/alphaflow/pkg/conn"
)

func main() {
	configPath := flag.String("config", "backtest.json", "Path to JSON config")
	profileAddr := flag.String("profile-addr", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "alphaflow/backtest",
			ServerAddress:   *profileAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	environ, err := ops.LoadEnv()
	if err != nil {
		log.Fatalf("environment load failed: %v", err)
	}

	eng := engine.New()
	for _, symbol := range loaded.Symbols {
		eng.AddEquity(symbol)
	}
	if loaded.Benchmark != "" {
		eng.SetBenchmark(loaded.Benchmark)
	}
	eng.SetCash(loaded.Cash)
	if !loaded.DataStart.IsZero() {
		eng.SetDataStart(loaded.DataStart)
	}
	if !loaded.BacktestStart.IsZero() {
		eng.SetBacktestStart(loaded.BacktestStart)
	}
	if !loaded.BacktestEnd.IsZero() {
		eng.SetBacktestEnd(loaded.BacktestEnd)
	}

	dataFeed, err := buildFeed(loaded, environ)
	if err != nil {
		log.Fatalf("feed setup failed: %v", err)
	}
	eng.SetDataFeed(dataFeed)

	runStrategy, err := buildStrategy(loaded)
	if err != nil {
		log.Fatalf("strategy setup failed: %v", err)
	}
	eng.AddStrategy(runStrategy)
	eng.SetBroker(broker.NewSimple(loaded.Margin))

	curve := analyzer.NewEquityCurve()
	eng.AddAnalyzer(curve)

	var st *store.Store
	if loaded.Persist {
		db, err := conn.OpenPostgres(conn.PostgresConfig{ConnString: environ.DatabaseURL})
		if err != nil {
			log.Fatalf("database open failed: %v", err)
		}
		st = store.New(db)
		if err := st.Migrate(); err != nil {
			log.Fatalf("database migrate failed: %v", err)
		}
		eng.AddAnalyzer(store.NewRecorder(st, loaded.Strategy.Type, curve))
	}

	if err := eng.Run(context.Background(), engine.ModeBacktest); err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	if st != nil {
		for _, symbol := range loaded.Symbols {
			if err := st.SaveBars(eng.Bars(symbol)); err != nil {
				log.Fatalf("bar persistence failed for %s: %v", symbol, err)
			}
		}
	}

	if metrics, ok := curve.Results(); ok {
		fmt.Printf("max drawdown:      %8.2f%%\n", 100*metrics.MaxDrawdown)
		fmt.Printf("sharpe ratio:      %8.4f\n", metrics.SharpeRatio)
		fmt.Printf("sortino ratio:     %8.4f\n", metrics.SortinoRatio)
		fmt.Printf("annualized return: %8.2f%%\n", 100*metrics.AnnualizedReturn)
		fmt.Printf("total return:      %8.2f%%\n", 100*metrics.TotalReturn)
	}
	if benchmark, ok := curve.BenchmarkResults(); ok {
		fmt.Printf("benchmark return:  %8.2f%%\n", 100*benchmark.TotalReturn)
	}
}

func buildFeed(loaded ops.Loaded, environ ops.Env) (engine.DataFeed, error) {
	switch loaded.Feed.Type {
	case "csv":
		return feed.NewCSV(feed.CSVConfig{
			Path:            loaded.Feed.Path,
			SymbolOverride:  loaded.Feed.SymbolOverride,
			TimestampLayout: loaded.Feed.TimestampLayout,
		}), nil
	case "alphavantage":
		return feed.NewAlphaVantage(feed.AlphaVantageConfig{
			APIKey: environ.AlphaVantageAPIKey,
		}), nil
	case "synthetic":
		return feed.NewSynthetic(feed.SyntheticConfig{
			Start:     time.Now().UTC().AddDate(-1, 0, 0).Truncate(24 * time.Hour),
			Bars:      loaded.Feed.Bars,
			BasePrice: loaded.Feed.BasePrice,
			Drift:     loaded.Feed.Drift,
		}), nil
	default:
		return nil, fmt.Errorf("unknown feed type %q", loaded.Feed.Type)
	}
}

func buildStrategy(loaded ops.Loaded) (engine.Strategy, error) {
	switch loaded.Strategy.Type {
	case "buy-and-hold":
		symbol := loaded.Strategy.Symbol
		if symbol == "" {
			symbol = loaded.Symbols[0]
		}
		weight := loaded.Strategy.TargetWeight
		if weight == 0 {
			weight = 1.0
		}
		return strategy.NewBuyAndHold(symbol, weight), nil
	default:
		return nil, fmt.Errorf("unknown strategy type %q", loaded.Strategy.Type)
	}
}
