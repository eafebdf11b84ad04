package main

import (
	"context"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"face-redaction-service/internal/config"
	"face-redaction-service/internal/detector"
	"face-redaction-service/internal/queue"
	"face-redaction-service/internal/redactor"
	"face-redaction-service/internal/repository/postgresql"
	"face-redaction-service/internal/worker"
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

	// The pool connects lazily, so a down database does not keep the worker
	// from starting: processing degrades to log-only durability until the
	// store comes back.
	pool, err := postgresql.NewPool(ctx, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer pool.Close()
	if err := postgresql.EnsureSchema(ctx, pool); err != nil {
		logrus.WithError(err).Warn("job store unreachable, continuing without durable history")
	}
	repo := postgresql.NewJobRepository(pool)

	det := &detector.Command{
		Argv:          cfg.DetectorCmd,
		MinConfidence: cfg.MinConfidence,
		Padding:       cfg.BoxPadding,
		Timeout:       cfg.DetectorTimeout,
	}

	var overlay image.Image
	if cfg.OverlayImage != "" {
		overlay = worker.LoadOverlay(cfg.OverlayImage)
	}

	processor := worker.NewProcessor(repo, dir, det, redactor.New(), overlay)
	loop := worker.NewLoop(dir, processor, cfg.PollInterval)

	loop.Run(ctx)
}
