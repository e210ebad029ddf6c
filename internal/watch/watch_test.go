package watch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer shared with the watcher goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcher_RunsOnStartAndOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := make(chan string, 10)
	w, err := New(path, 10*time.Millisecond, &syncBuffer{}, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		calls <- string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	expectCall(t, calls, "v1")

	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	expectCall(t, calls, "v2")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	calls := make(chan string, 10)
	w, err := New(path, 10*time.Millisecond, &syncBuffer{}, func() error {
		calls <- "called"
		return nil
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	expectCall(t, calls, "called")

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-calls:
		t.Fatal("callback ran for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsCallbackErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	errs := &syncBuffer{}
	called := make(chan struct{}, 1)
	w, err := New(path, 10*time.Millisecond, errs, func() error {
		called <- struct{}{}
		return errors.New("nothing to update")
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	select {
	case <-called:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not invoked")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(errs.String(), "nothing to update") {
		if time.Now().After(deadline) {
			t.Fatalf("error was not reported, got %q", errs.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "p.json"), 0, &syncBuffer{}, func() error { return nil })
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func expectCall(t *testing.T, calls <-chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-calls:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("callback did not observe %q", want)
		}
	}
}
