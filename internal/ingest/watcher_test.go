package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectPath(t *testing.T, events <-chan string, want string, timeout time.Duration) time.Time {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed before %s arrived", want)
			}
			if p == want {
				return time.Now()
			}
		case <-deadline:
			t.Fatalf("%s was not delivered within %v", want, timeout)
		}
	}
}

func TestWatcherDeliversNewFiles(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{root},
		Debounce: 30 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(root, "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	collectPath(t, events, path, 3*time.Second)
}

func TestWatcherInitialScan(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "already-there.pdf")
	if err := os.WriteFile(existing, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    30 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	collectPath(t, events, existing, 3*time.Second)
}

// A write burst on one file must not hold back delivery of another file that
// has gone quiet.
func TestWatcherDebouncePerPath(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	quiet := filepath.Join(root, "quiet.pdf")
	noisy := filepath.Join(root, "noisy.pdf")
	if err := os.WriteFile(quiet, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	burstDone := make(chan time.Time, 1)
	go func() {
		for i := 0; i < 40; i++ {
			_ = os.WriteFile(noisy, []byte("%PDF"), 0o644)
			time.Sleep(25 * time.Millisecond)
		}
		burstDone <- time.Now()
	}()

	quietAt := collectPath(t, events, quiet, 5*time.Second)
	endOfBurst := <-burstDone
	if !quietAt.Before(endOfBurst) {
		t.Errorf("quiet file delivered at %v, after the burst ended at %v", quietAt, endOfBurst)
	}
}
