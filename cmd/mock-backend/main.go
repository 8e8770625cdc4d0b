// Command mock-backend serves an in-memory ledger and a keyword rule engine
// on one port, for running the pipeline locally.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexchain/internal/platform/logger"
	"lexchain/mocks/backend"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log := logger.New(getEnv("LOG_LEVEL", "info"))
	addr := ":" + getEnv("PORT", "8081")

	srv := backend.NewServer(log)
	if ms := getEnv("LATENCY", ""); ms != "" {
		d, err := time.ParseDuration(ms)
		if err != nil {
			log.Error("invalid LATENCY", "value", ms, "error", err)
			os.Exit(1)
		}
		srv.SetLatency(d)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("mock backend starting", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("mock backend stopped", "error", err)
		os.Exit(1)
	}
}
