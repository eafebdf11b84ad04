package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"face-redaction-service/internal/queue"
)

// Loop is the single-threaded polling consumer of the work queue: sleep,
// scan, process everything new, repeat. One goroutine owns the scan and all
// job writes, which is what keeps the single-writer-per-record rule without
// locks.
type Loop struct {
	dir       *queue.Dir
	processor *Processor
	interval  time.Duration

	// seen records ids this loop instance already picked up, so a file that
	// survives a failed archive (or appears mid-scan twice) is not processed
	// again. Scoped to the loop's lifetime on purpose.
	seen map[uuid.UUID]struct{}

	log *logrus.Entry
}

func NewLoop(dir *queue.Dir, processor *Processor, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Loop{
		dir:       dir,
		processor: processor,
		interval:  interval,
		seen:      make(map[uuid.UUID]struct{}),
		log:       logrus.WithField("component", "worker"),
	}
}

// Run polls until the context is cancelled. An empty watch directory is a
// no-op scan; scan errors are logged and retried next tick.
func (l *Loop) Run(ctx context.Context) {
	l.log.WithField("poll_interval", l.interval).Info("worker loop started")

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		l.Tick(ctx)
		select {
		case <-ctx.Done():
			l.log.Info("worker loop stopped")
			return
		case <-ticker.C:
		}
	}
}

// Tick performs one scan-and-process pass. Exported so one pass can be
// driven directly in tests and tools.
func (l *Loop) Tick(ctx context.Context) {
	entries, err := l.dir.Scan()
	if err != nil {
		l.log.WithError(err).Error("scan failed")
		return
	}
	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if _, dup := l.seen[e.JobID]; dup {
			continue
		}
		l.seen[e.JobID] = struct{}{}
		l.processor.Process(ctx, e)
	}
}
