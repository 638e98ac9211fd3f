// Package worker holds the background loops that run independent of request
// traffic.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/alihumdard/suya-kabab-app-sub000/internal/application"
)

// IntentSweeper periodically marks non-terminal pending intents whose TTL
// elapsed as expired. Expiry is a soft cancellation: it never touches an
// in-flight gateway call, it only stops stale drafts from materializing.
type IntentSweeper struct {
	intents  application.IntentRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewIntentSweeper(intents application.IntentRepository, interval time.Duration, logger *slog.Logger) *IntentSweeper {
	return &IntentSweeper{
		intents:  intents,
		interval: interval,
		logger:   logger,
	}
}

func (w *IntentSweeper) Start(ctx context.Context) {
	w.logger.Info("intent sweeper started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("intent sweeper stopping")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *IntentSweeper) sweep(ctx context.Context) {
	swept, err := w.intents.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error("intent sweep failed", "error", err)
		return
	}
	if swept > 0 {
		w.logger.Info("expired pending intents", "count", swept)
	}
}
