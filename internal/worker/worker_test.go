package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/worldstate-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/worldstate-engine/pkg/queue"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingProcessor struct {
	mu        sync.Mutex
	requests  []*queuePkg.Request
	err       error
	processed chan struct{}
	// lockHeld records whether the session lock existed during Process.
	mr       *miniredis.Miniredis
	lockHeld []bool
}

func (p *recordingProcessor) Process(ctx context.Context, req *queuePkg.Request) error {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	if p.mr != nil {
		p.lockHeld = append(p.lockHeld, p.mr.Exists(sessionLockKey(req.SessionID)))
	}
	p.mu.Unlock()
	if p.processed != nil {
		p.processed <- struct{}{}
	}
	return p.err
}

func (p *recordingProcessor) Requests() []*queuePkg.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*queuePkg.Request(nil), p.requests...)
}

func setupWorker(t *testing.T, p Processor) (*Worker, *queue.RequestQueue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := queue.NewRequestQueue(rdb)
	w := New(q, p, rdb, discardLogger(), "worker-test")
	w.pollTimeout = time.Second
	return w, q, mr
}

func TestNew_GeneratesID(t *testing.T) {
	w := New(nil, nil, nil, discardLogger(), "")
	if len(w.ID()) != len("worker-")+8 {
		t.Errorf("Expected generated worker id, got %q", w.ID())
	}
}

func TestWorker_ProcessNext(t *testing.T) {
	p := &recordingProcessor{}
	w, q, mr := setupWorker(t, p)
	p.mr = mr
	ctx := context.Background()

	req := queuePkg.NewRequest(queuePkg.RequestTypeRefresh, "s1", "")
	if err := q.Enqueue(ctx, req); err != nil {
		t.Fatal(err)
	}

	processed, err := w.ProcessNext(ctx)
	if err != nil {
		t.Fatalf("ProcessNext error: %v", err)
	}
	if !processed {
		t.Fatal("Expected request to be processed")
	}

	got := p.Requests()
	if len(got) != 1 || got[0].RequestID != req.RequestID {
		t.Fatalf("Expected request %s to reach the processor, got %+v", req.RequestID, got)
	}
	if !p.lockHeld[0] {
		t.Error("Expected session lock to be held while processing")
	}
	if mr.Exists(sessionLockKey("s1")) {
		t.Error("Expected session lock to be released after processing")
	}
}

func TestWorker_ProcessNext_EmptyQueue(t *testing.T) {
	p := &recordingProcessor{}
	w, _, _ := setupWorker(t, p)

	processed, err := w.ProcessNext(context.Background())
	if err != nil {
		t.Fatalf("Expected empty poll to be silent, got %v", err)
	}
	if processed {
		t.Error("Expected nothing processed")
	}
}

func TestWorker_ProcessNext_LockedSessionRequeues(t *testing.T) {
	p := &recordingProcessor{}
	w, q, mr := setupWorker(t, p)
	ctx := context.Background()

	if err := mr.Set(sessionLockKey("s1"), "worker-other"); err != nil {
		t.Fatal(err)
	}
	req := queuePkg.NewRequest(queuePkg.RequestTypeRefresh, "s1", "")
	if err := q.Enqueue(ctx, req); err != nil {
		t.Fatal(err)
	}

	processed, err := w.ProcessNext(ctx)
	if err != nil {
		t.Fatalf("ProcessNext error: %v", err)
	}
	if processed {
		t.Error("Expected request for locked session to be skipped")
	}
	if len(p.Requests()) != 0 {
		t.Error("Expected processor not to be called")
	}

	depth, _ := q.Depth(ctx)
	if depth != 1 {
		t.Errorf("Expected request to be re-queued, depth %d", depth)
	}
	owner, _ := mr.Get(sessionLockKey("s1"))
	if owner != "worker-other" {
		t.Errorf("Expected foreign lock to be left alone, owner %q", owner)
	}
}

func TestWorker_ProcessNext_ProcessorError(t *testing.T) {
	p := &recordingProcessor{err: errors.New("boom")}
	w, q, mr := setupWorker(t, p)
	ctx := context.Background()

	if err := q.Enqueue(ctx, queuePkg.NewRequest(queuePkg.RequestTypeRefresh, "s1", "")); err != nil {
		t.Fatal(err)
	}

	processed, err := w.ProcessNext(ctx)
	if err == nil {
		t.Fatal("Expected processor error to be returned")
	}
	if processed {
		t.Error("Expected processed to be false on error")
	}
	if mr.Exists(sessionLockKey("s1")) {
		t.Error("Expected session lock to be released after a failure")
	}
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	p := &recordingProcessor{processed: make(chan struct{}, 1)}
	w, q, _ := setupWorker(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := q.Enqueue(ctx, queuePkg.NewRequest(queuePkg.RequestTypeRefresh, "s1", "")); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-p.processed:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for the request to be processed")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Worker did not stop after cancel")
	}
}

type processorFunc func(ctx context.Context, req *queuePkg.Request) error

func (f processorFunc) Process(ctx context.Context, req *queuePkg.Request) error {
	return f(ctx, req)
}

func TestWorker_ExtendSessionLock(t *testing.T) {
	w, _, mr := setupWorker(t, &recordingProcessor{})
	ctx := context.Background()
	key := sessionLockKey("s1")

	if ok, err := w.acquireSessionLock(ctx, "s1"); err != nil || !ok {
		t.Fatalf("acquireSessionLock() = %v, %v", ok, err)
	}
	mr.FastForward(90 * time.Second)
	if ttl := mr.TTL(key); ttl != 30*time.Second {
		t.Fatalf("Expected 30s left before extending, got %v", ttl)
	}

	held, err := w.extendSessionLock(ctx, "s1")
	if err != nil || !held {
		t.Fatalf("extendSessionLock() = %v, %v", held, err)
	}
	if ttl := mr.TTL(key); ttl != sessionLockTTL {
		t.Errorf("Expected TTL reset to %v, got %v", sessionLockTTL, ttl)
	}

	if err := mr.Set(key, "worker-other"); err != nil {
		t.Fatal(err)
	}
	held, err = w.extendSessionLock(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if held {
		t.Error("Did not expect to extend a lock owned by another worker")
	}

	mr.Del(key)
	if held, _ := w.extendSessionLock(ctx, "s1"); held {
		t.Error("Did not expect to extend a missing lock")
	}
}

func TestWorker_ProcessNext_LockOutlivesTTL(t *testing.T) {
	var (
		mr   *miniredis.Miniredis
		held []bool
	)
	p := processorFunc(func(ctx context.Context, req *queuePkg.Request) error {
		// Simulated time passes well beyond the TTL while the job runs.
		for i := 0; i < 5; i++ {
			time.Sleep(250 * time.Millisecond)
			mr.FastForward(200 * time.Millisecond)
			held = append(held, mr.Exists(sessionLockKey(req.SessionID)))
		}
		return nil
	})
	w, q, m := setupWorker(t, p)
	mr = m
	w.lockTTL = 300 * time.Millisecond
	ctx := context.Background()

	if err := q.Enqueue(ctx, queuePkg.NewRequest(queuePkg.RequestTypeRefresh, "slow", "")); err != nil {
		t.Fatal(err)
	}
	ok, err := w.ProcessNext(ctx)
	if err != nil || !ok {
		t.Fatalf("ProcessNext() = %v, %v", ok, err)
	}
	for i, h := range held {
		if !h {
			t.Errorf("Expected session lock to be held at step %d", i)
		}
	}
	if mr.Exists(sessionLockKey("slow")) {
		t.Error("Expected session lock to be released after processing")
	}
}
