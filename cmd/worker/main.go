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

	"github.com/kirillkom/personal-reading-tracker/internal/bootstrap"
	"github.com/kirillkom/personal-reading-tracker/internal/config"
	"github.com/kirillkom/personal-reading-tracker/internal/observability/logging"
	"github.com/kirillkom/personal-reading-tracker/internal/observability/metrics"
)

const serviceName = "reading-tracker-worker"

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

	m := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: m.Handler(),
	}
	go func() {
		log.Printf("worker metrics listening on :%s", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeImportRequested(ctx, func(handlerCtx context.Context, jobID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		m.StartImport()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, jobID)
		m.FinishImport(serviceName, time.Since(start), processErr)

		if processErr == nil {
			if job, jobErr := app.ImportJobs.GetByID(processCtx, jobID); jobErr == nil {
				m.ObserveBooksImported(serviceName, job.BooksAdded)
				m.ObserveQueueLag(serviceName, start.Sub(job.CreatedAt))
			}
		}
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
