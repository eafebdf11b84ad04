package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"face-redaction-service/internal/config"
	"face-redaction-service/internal/queue"
	"face-redaction-service/internal/repository/postgresql"
	"face-redaction-service/internal/service"
	httptransport "face-redaction-service/internal/transport/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dir := queue.New(cfg.WatchDir, cfg.OutputDir, cfg.ArchiveDir)
	if err := dir.EnsureDirs(); err != nil {
		log.Fatalf("queue dirs: %v", err)
	}

	pool, err := postgresql.NewPool(ctx, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer pool.Close()
	if err := postgresql.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	repo := postgresql.NewJobRepository(pool)
	jobSvc := service.NewJobService(repo, dir)
	h := httptransport.NewHandler(jobSvc, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:    cfg.Address,
		Handler: httptransport.Routes(h),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithField("address", cfg.Address).Info("server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	logrus.Info("server stopped")
}
