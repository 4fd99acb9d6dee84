package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/scanwell/consult-intake/internal/common"
	"github.com/scanwell/consult-intake/internal/entity"
)

type flakyEngine struct {
	failures int
	calls    int
}

func (f *flakyEngine) Name() string { return "flaky" }

func (f *flakyEngine) Recognize(_ context.Context, page entity.RawPage) (entity.PageText, error) {
	f.calls++
	if f.calls <= f.failures {
		return entity.PageText{}, errors.New("engine hiccup")
	}
	return entity.NewPageText(page.Index, []string{"ok"}, nil), nil
}

func noSleep(_ context.Context, _ time.Duration) error { return nil }

func TestRetryingSucceedsAfterTransientFailures(t *testing.T) {
	engine := &flakyEngine{failures: 2}
	r := NewRetrying(engine, 2, time.Millisecond, nil)
	r.sleep = noSleep

	text, err := r.Recognize(context.Background(), entity.RawPage{Index: 0})
	if err != nil {
		t.Fatalf("recognize failed: %v", err)
	}
	if text.LineCount() != 1 {
		t.Errorf("line count = %d", text.LineCount())
	}
	if engine.calls != 3 {
		t.Errorf("calls = %d, want 3", engine.calls)
	}
}

func TestRetryingExhaustion(t *testing.T) {
	engine := &flakyEngine{failures: 10}
	r := NewRetrying(engine, 2, time.Millisecond, nil)
	r.sleep = noSleep

	_, err := r.Recognize(context.Background(), entity.RawPage{Index: 3})
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	if engine.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", engine.calls)
	}
}

func TestRetryingBackoffDoubles(t *testing.T) {
	engine := &flakyEngine{failures: 3}
	r := NewRetrying(engine, 3, 100*time.Millisecond, nil)

	var waits []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if _, err := r.Recognize(context.Background(), entity.RawPage{}); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v", waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
}

func TestRetryingCancellationStopsRetries(t *testing.T) {
	engine := &flakyEngine{failures: 10}
	r := NewRetrying(engine, 5, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := r.Recognize(ctx, entity.RawPage{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if engine.calls != 1 {
		t.Errorf("calls = %d, want 1", engine.calls)
	}
}
