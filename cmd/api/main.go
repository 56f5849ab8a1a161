package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/handlers"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/api/middleware"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/app"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/config"
	"github.com/alayssahrnndz/Cash-Elan-Mobile-Bank-sub001/internal/logger"
)

// maxBodyBytes caps step request bodies; envelopes are small.
const maxBodyBytes = 64 << 10

func main() {
	configPath := flag.String("config", "", "path to the YAML config (defaults to configs/config.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.Configure(logger.Options{Level: cfg.Log.Level, Console: cfg.Log.Console})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	mux := http.NewServeMux()
	handlers.NewHandler(a.Machine, a.Store, a.Reminders, log).Register(mux)

	mux.Handle("GET /metrics", a.Metrics.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.Metrics(a.Metrics),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
		middleware.MaxBody(maxBodyBytes),
	)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	remindersDone := make(chan struct{})
	if cfg.Reminders.Enabled {
		go func() {
			defer close(remindersDone)
			if err := a.Reminders.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Reminder dispatcher failed")
			}
		}()
	} else {
		close(remindersDone)
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	stop()
	select {
	case <-remindersDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Reminder dispatcher did not stop in time")
	}

	log.Info().Msg("Server exited")
}
