// Package main runs the token risk scoring service: the batch analysis
// API over SSE and WebSocket, backed by PostgreSQL for fresh scores and
// ClickHouse for score history.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"token-risk-engine/internal/analysis"
	"token-risk-engine/internal/batch"
	"token-risk-engine/internal/cache"
	"token-risk-engine/internal/domain"
	"token-risk-engine/internal/observability"
	"token-risk-engine/internal/providers"
	"token-risk-engine/internal/ratelimit"
	"token-risk-engine/internal/server"
	"token-risk-engine/internal/storage"
	chstore "token-risk-engine/internal/storage/clickhouse"
	"token-risk-engine/internal/storage/memory"
	"token-risk-engine/internal/storage/migrations"
	pgstore "token-risk-engine/internal/storage/postgres"
)

func main() {
	// Load .env file if present
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "API HTTP listen address")
	metricsAddr := flag.String("metrics-addr", envOr("METRICS_ADDR", ":9090"), "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	apiKeys := flag.String("api-keys", os.Getenv("API_KEYS"), "Comma-separated key:tier pairs (e.g. sk-abc:pro)")
	batchTimeout := flag.Duration("batch-timeout", batch.DefaultItemTimeout, "Per-token analysis timeout")
	goplusURL := flag.String("goplus-url", os.Getenv("GOPLUS_BASE_URL"), "GoPlus API base URL override")
	dexscreenerURL := flag.String("dexscreener-url", os.Getenv("DEXSCREENER_BASE_URL"), "Dexscreener API base URL override")
	geckoURL := flag.String("geckoterminal-url", os.Getenv("GECKOTERMINAL_BASE_URL"), "GeckoTerminal API base URL override")
	heliusEndpoint := flag.String("helius-endpoint", os.Getenv("HELIUS_RPC_ENDPOINT"), "Helius Solana RPC endpoint")
	alchemyEth := flag.String("alchemy-eth-endpoint", os.Getenv("ALCHEMY_ETH_ENDPOINT"), "Alchemy Ethereum RPC endpoint")
	alchemyBase := flag.String("alchemy-base-endpoint", os.Getenv("ALCHEMY_BASE_ENDPOINT"), "Alchemy Base RPC endpoint")
	alchemyArbitrum := flag.String("alchemy-arbitrum-endpoint", os.Getenv("ALCHEMY_ARBITRUM_ENDPOINT"), "Alchemy Arbitrum RPC endpoint")
	alchemyPolygon := flag.String("alchemy-polygon-endpoint", os.Getenv("ALCHEMY_POLYGON_ENDPOINT"), "Alchemy Polygon RPC endpoint")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	keys, err := parseAPIKeys(*apiKeys)
	if err != nil {
		logger.Fatalf("Invalid --api-keys: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	scoreStore, historyStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Shared provider infrastructure
	limiter := ratelimit.New()
	defer limiter.Close()
	respCache := cache.New()
	defer respCache.Close()

	// Provider clients
	var goplusOpts []providers.GoPlusOption
	if *goplusURL != "" {
		goplusOpts = append(goplusOpts, providers.WithGoPlusBaseURL(*goplusURL))
	}
	var dexOpts []providers.DexscreenerOption
	if *dexscreenerURL != "" {
		dexOpts = append(dexOpts, providers.WithDexscreenerBaseURL(*dexscreenerURL))
	}
	var geckoOpts []providers.GeckoTerminalOption
	if *geckoURL != "" {
		geckoOpts = append(geckoOpts, providers.WithGeckoTerminalBaseURL(*geckoURL))
	}

	goplus := providers.NewGoPlusClient(limiter, respCache, goplusOpts...)
	dexscreener := providers.NewDexscreenerClient(limiter, respCache, dexOpts...)
	gecko := providers.NewGeckoTerminalClient(limiter, respCache, geckoOpts...)

	analyzerOpts := analysis.Options{
		Security: goplus,
		Pairs:    dexscreener,
		Pools:    gecko,
		Logger:   log.New(os.Stdout, "[analyzer] ", log.LstdFlags),
	}

	alchemyEndpoints := alchemyEndpointMap(*alchemyEth, *alchemyBase, *alchemyArbitrum, *alchemyPolygon)
	if len(alchemyEndpoints) > 0 {
		analyzerOpts.Contracts = providers.NewAlchemyClient(alchemyEndpoints, limiter, respCache)
	} else {
		logger.Println("No Alchemy endpoints configured, EVM contract checks disabled")
	}
	if *heliusEndpoint != "" {
		analyzerOpts.Solana = providers.NewHeliusClient(*heliusEndpoint, limiter, respCache)
	} else {
		logger.Println("No Helius endpoint configured, Solana mint checks disabled")
	}

	analyzer := analysis.New(analyzerOpts)

	orchestrator := batch.New(batch.Options{
		Analyzer: analyzer,
		Store:    scoreStore,
		History:  historyStore,
		Timeout:  *batchTimeout,
		Logger:   log.New(os.Stdout, "[batch] ", log.LstdFlags),
	})

	srv := server.New(server.Options{
		Runner: orchestrator,
		Auth:   server.NewStaticAuthenticator(keys),
		Logger: logger,
	})

	api := &http.Server{
		Addr:    *listenAddr,
		Handler: srv.Handler(),
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Printf("API shutdown: %v", err)
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Metrics endpoint on its own listener
	go startMetricsServer(*metricsAddr, logger)

	logger.Printf("API listening on %s", *listenAddr)
	err = api.ListenAndServe()
	close(done)
	cancel()

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates the score store and history store. The cleanup
// function closes the underlying connections.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.RiskScoreStore, storage.ScoreHistoryStore, func(), error) {
	if useMemory {
		return memory.NewRiskScoreStore(), memory.NewScoreHistoryStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	cleanup := func() {
		pool.Close()
		conn.Close()
	}
	return pgstore.NewRiskScoreStore(pool), chstore.NewScoreHistoryStore(conn), cleanup, nil
}

// startMetricsServer serves Prometheus metrics and a liveness probe.
func startMetricsServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	logger.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("Metrics server error: %v", err)
	}
}

// parseAPIKeys parses a comma-separated list of key:tier pairs.
func parseAPIKeys(raw string) (map[string]domain.Tier, error) {
	keys := make(map[string]domain.Tier)
	if raw == "" {
		return keys, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, tierName, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("malformed pair %q, want key:tier", pair)
		}
		tier := domain.Tier(strings.TrimSpace(tierName))
		switch tier {
		case domain.TierFree, domain.TierPro, domain.TierKeyBasic, domain.TierKeyStandard, domain.TierKeyEnterprise:
			keys[strings.TrimSpace(key)] = tier
		default:
			return nil, fmt.Errorf("unknown tier %q", tierName)
		}
	}
	return keys, nil
}

// alchemyEndpointMap builds the per-chain EVM RPC endpoint map, skipping
// chains with no configured endpoint.
func alchemyEndpointMap(eth, base, arbitrum, polygon string) map[domain.Chain]string {
	endpoints := make(map[domain.Chain]string)
	if eth != "" {
		endpoints[domain.ChainEthereum] = eth
	}
	if base != "" {
		endpoints[domain.ChainBase] = base
	}
	if arbitrum != "" {
		endpoints[domain.ChainArbitrum] = arbitrum
	}
	if polygon != "" {
		endpoints[domain.ChainPolygon] = polygon
	}
	return endpoints
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
