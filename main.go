package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/danielhkuo/dojogo/auth"
	"github.com/danielhkuo/dojogo/cliparse"
	"github.com/danielhkuo/dojogo/db"
	"github.com/danielhkuo/dojogo/middleware"
	"github.com/danielhkuo/dojogo/router"
	"github.com/danielhkuo/dojogo/storage"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	})))

	// Connect to PostgreSQL
	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Apply migrations
	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready")

	verifier := auth.NewVerifier(cfg.AuthDomain, cfg.AuthAudience, nil)

	// Storage is optional at startup; IMU endpoints answer 500 without it
	var blobs storage.Gateway
	gateway, err := storage.NewAzureGateway(cfg.StorageConnectionString, cfg.StorageContainer)
	switch {
	case err == nil:
		blobs = gateway
		slog.Info("Blob storage ready", "container", cfg.StorageContainer)
	case errors.Is(err, storage.ErrNotConfigured):
		slog.Warn("Blob storage not configured; IMU uploads disabled")
	default:
		slog.Error("blob storage setup failed", "error", err)
		os.Exit(1)
	}

	// Create router
	mux := router.NewRouter(db.NewExecutor(dbConn), verifier, blobs)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins)(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "issuer", verifier.Issuer())
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
