package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/personal-reading-tracker/internal/adapters/http"
	"github.com/kirillkom/personal-reading-tracker/internal/bootstrap"
	"github.com/kirillkom/personal-reading-tracker/internal/config"
	"github.com/kirillkom/personal-reading-tracker/internal/observability/logging"
	"github.com/kirillkom/personal-reading-tracker/internal/observability/metrics"
)

const serviceName = "reading-tracker-api"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics(serviceName)
	app.RecommendUC.WithMetrics(m.Pipeline(serviceName))
	router := httpadapter.NewRouter(
		app.RecommendUC, app.DiscoverUC, app.LibraryUC,
		app.RecLog, app.UploadUC, app.ImportJobs,
	).
		WithMetrics(serviceName, m).
		WithTrafficControl(cfg.APIRateLimitRPS, cfg.APIRateLimitBurst, cfg.APIMaxInFlight, 2*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.Handle("/", m.Middleware(serviceName, router.Handler()))

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
