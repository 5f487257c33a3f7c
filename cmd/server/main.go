package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/studyloop/engine/internal/api"
	"github.com/studyloop/engine/internal/content"
	"github.com/studyloop/engine/internal/infrastructure/config"
	"github.com/studyloop/engine/internal/service"
	"github.com/studyloop/engine/internal/simulation"
	"github.com/studyloop/engine/internal/store"

	_ "github.com/studyloop/engine/docs" // generated swagger docs
)

// @title           Studyloop Engine API
// @version         1.0
// @description     Adaptive learning engine: spaced-repetition scheduling, difficulty adaptation, session planning, and performance prediction.

// @host      localhost:8080
// @BasePath  /

func main() {
	simulate := flag.Bool("simulate", false, "replay synthetic learners through the engine and exit")
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// ── Dependencies ────────────────────────────────────────────────
	db, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	engineCfg, err := config.LoadEngine(cfg.EnginePath)
	if err != nil {
		logger.Error("failed to load engine config", "error", err)
		os.Exit(1)
	}

	// The real content system plugs in here; the engine only needs
	// concept identities for the new-content share of a plan.
	provider := content.NewStaticProvider(nil)

	engine := service.NewLearningService(db, provider, engineCfg, logger)
	handler := api.NewHandler(engine, logger)

	if *simulate {
		if err := simulation.Run(context.Background(), engine, 25, logger); err != nil {
			logger.Error("simulation failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// ── Routes ──────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	api.RegisterRoutes(mux, handler)

	mux.Handle("GET /metrics", api.MetricsHandler())

	// Swagger UI served at /swagger/
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// ── Middleware chain: Logging → CORS → mux ──────────────────────
	logged := api.Logging(logger)(api.CORS(mux))

	// ── Server ──────────────────────────────────────────────────────
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           logged,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down server")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.ServerAddress)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed to start", "error", err)
		os.Exit(1)
	}
}
