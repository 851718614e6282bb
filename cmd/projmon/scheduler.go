package main

import (
	"context"
	"log/slog"
	"time"
)

// runScheduler calls job every interval until ctx is done. Runs never
// overlap. A non-positive interval disables it.
func runScheduler(ctx context.Context, interval time.Duration, logger *slog.Logger, job func(context.Context) error) {
	if interval <= 0 {
		logger.Info("scheduler disabled")
		return
	}
	logger.Info("scheduler started", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := job(ctx); err != nil {
				logger.Error("scheduled cycle failed", "error", err, "duration", time.Since(start))
				continue
			}
			logger.Info("scheduled cycle finished", "duration", time.Since(start))
		}
	}
}
