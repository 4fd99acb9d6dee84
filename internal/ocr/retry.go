package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

const maxBackoff = 30 * time.Second

// Retrying wraps an Engine with bounded retries and exponential backoff for
// transient engine failures. Once the bound is exhausted the call fails with
// common.ErrExtraction; the orchestrator turns that into a page-level skip.
type Retrying struct {
	engine     Engine
	maxRetries int           // retries after the first attempt
	backoff    time.Duration // base wait, doubled per attempt
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

func NewRetrying(engine Engine, maxRetries int, backoff time.Duration, logger *slog.Logger) *Retrying {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &Retrying{
		engine:     engine,
		maxRetries: maxRetries,
		backoff:    backoff,
		sleep:      sleepCtx,
		logger:     logger,
	}
}

func (r *Retrying) Name() string { return r.engine.Name() }

func (r *Retrying) Recognize(ctx context.Context, page entity.RawPage) (entity.PageText, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			wait := r.backoff * (1 << uint(attempt-1))
			if wait > maxBackoff {
				wait = maxBackoff
			}
			r.logger.Warn("ocr retry",
				"engine", r.engine.Name(), "page", page.Index,
				"attempt", attempt, "wait", wait, "error", lastErr)
			if err := r.sleep(ctx, wait); err != nil {
				return entity.PageText{}, err
			}
		}

		text, err := r.engine.Recognize(ctx, page)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return entity.PageText{}, ctx.Err()
		}
		lastErr = err
	}

	return entity.PageText{}, common.NewAppError("OCR_EXHAUSTED",
		fmt.Sprintf("page %d failed after %d attempts: %v", page.Index, r.maxRetries+1, lastErr),
		common.ErrExtraction)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
