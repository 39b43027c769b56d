package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/finalize"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/logging"
)

const (
	defaultPort   = "8080"
	tokenDuration = 24 * time.Hour
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/splitledger.db")
	port := getEnv("PORT", defaultPort)

	cfg, err := ledgerConfig()
	if err != nil {
		slog.Error("Invalid ledger configuration", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	// A missing chain connection leaves verification unavailable; the rest
	// of the server still works.
	var backend ledger.Backend
	if client, err := ethclient.Dial(cfg.RPCURL); err != nil {
		slog.Warn("Failed to connect to chain", "rpc_url", cfg.RPCURL, "error", err)
	} else {
		defer client.Close()
		backend = client
	}

	ledgerClient := ledger.NewClient(backend, cfg)
	if backend != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := ledgerClient.CheckChain(ctx); errors.Is(err, ledger.ErrWrongChain) {
			slog.Error("RPC endpoint serves another chain, ledger reads disabled", "chain_id", cfg.ChainID, "error", err)
		} else if err != nil {
			slog.Warn("Chain check failed", "chain_id", cfg.ChainID, "error", err)
		}
		cancel()
	}
	if err := cfg.Validate(); err != nil {
		slog.Warn("Ledger reads disabled", "error", err)
	} else {
		slog.Info("Ledger configured",
			"ledger_address", cfg.LedgerAddress.Hex(),
			"chain_id", cfg.ChainID,
		)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	finalizer := finalize.New(ledgerClient, store, m)

	var jwtManager *auth.JWTManager
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		jwtManager = auth.NewJWTManager(secret, tokenDuration)
	} else {
		slog.Warn("JWT_SECRET not set, mutating RPCs are unauthenticated")
	}

	mux := http.NewServeMux()

	// Register Connect services
	service.Register(mux, store, finalizer, service.Options{JWT: jwtManager, Metrics: m})

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := ":" + port
	slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// ledgerConfig reads the ledger settings from the environment.
func ledgerConfig() (ledger.Config, error) {
	cfg := ledger.DefaultConfig()
	cfg.ExplorerBaseURL = getEnv("EXPLORER_URL", cfg.ExplorerBaseURL)
	cfg.RPCURL = getEnv("RPC_URL", cfg.RPCURL)

	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("CHAIN_ID: %w", err)
		}
		cfg.ChainID = id
	}
	if v := os.Getenv("LEDGER_ADDRESS"); v != "" {
		addr, err := ledger.ParseAddress(v)
		if err != nil {
			return cfg, fmt.Errorf("LEDGER_ADDRESS: %w", err)
		}
		cfg.LedgerAddress = addr
	}
	return cfg, nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
