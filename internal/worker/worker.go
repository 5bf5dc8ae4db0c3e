package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/worldstate-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/worldstate-engine/pkg/queue"
)

const (
	defaultPollTimeout = 5 * time.Second
	sessionLockTTL     = 2 * time.Minute
	errorBackoff       = time.Second
)

// extendScript re-arms the lock's expiry only if this worker still owns it.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// releaseScript deletes the lock only if this worker still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Processor handles a single dequeued request
type Processor interface {
	Process(ctx context.Context, req *queuePkg.Request) error
}

// Worker pulls requests off the queue. Requests for one session never run
// concurrently across workers: a session lock is held while processing and
// a request for a locked session goes back to the end of the queue. The lock
// is refreshed while a request runs, so a slow job never outlives it.
type Worker struct {
	id          string
	queue       *queue.RequestQueue
	processor   Processor
	redisClient *redis.Client
	log         *slog.Logger
	pollTimeout time.Duration
	lockTTL     time.Duration
}

// New creates a new worker instance
func New(q *queue.RequestQueue, processor Processor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	return &Worker{
		id:          workerID,
		queue:       q,
		processor:   processor,
		redisClient: redisClient,
		log:         log.With("worker_id", workerID),
		pollTimeout: defaultPollTimeout,
		lockTTL:     sessionLockTTL,
	}
}

func (w *Worker) ID() string {
	return w.id
}

// Run processes requests until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("Worker starting")
	for {
		if ctx.Err() != nil {
			w.log.Info("Worker shutting down")
			return nil
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Error("Error processing request", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessNext waits for one request and handles it. It reports whether a
// request was processed; false with a nil error means the wait timed out or
// the request was re-queued behind a locked session.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	req, err := w.queue.BlockingDequeue(ctx, w.pollTimeout)
	if err != nil {
		return false, err
	}
	if req == nil {
		return false, nil
	}

	w.log.Info("Received request from queue",
		"request_id", req.RequestID,
		"type", req.Type,
		"session_id", req.SessionID)

	locked, err := w.acquireSessionLock(ctx, req.SessionID)
	if err != nil {
		if qErr := w.queue.Enqueue(ctx, req); qErr != nil {
			w.log.Error("Failed to re-queue request", "error", qErr, "request_id", req.RequestID)
		}
		return false, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		w.log.Info("Session already locked, re-queueing request",
			"request_id", req.RequestID,
			"session_id", req.SessionID)
		if err := w.queue.Enqueue(ctx, req); err != nil {
			return false, fmt.Errorf("failed to re-queue request: %w", err)
		}
		return false, nil
	}
	defer w.releaseSessionLock(req.SessionID)
	stopRefresh := w.holdSessionLock(ctx, req.SessionID)
	defer stopRefresh()

	if err := w.processor.Process(ctx, req); err != nil {
		return false, fmt.Errorf("failed to process request %s: %w", req.RequestID, err)
	}
	return true, nil
}

func sessionLockKey(sessionID string) string {
	return fmt.Sprintf("session-lock:%s", sessionID)
}

// acquireSessionLock returns true if the lock was acquired, false if another
// worker holds it.
func (w *Worker) acquireSessionLock(ctx context.Context, sessionID string) (bool, error) {
	return w.redisClient.SetNX(ctx, sessionLockKey(sessionID), w.id, w.lockTTL).Result()
}

// extendSessionLock resets the lock's TTL. It returns false if the lock is
// gone or owned by another worker.
func (w *Worker) extendSessionLock(ctx context.Context, sessionID string) (bool, error) {
	n, err := extendScript.Run(ctx, w.redisClient, []string{sessionLockKey(sessionID)}, w.id, w.lockTTL.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// holdSessionLock extends the lock every third of its TTL until the returned
// func is called.
func (w *Worker) holdSessionLock(ctx context.Context, sessionID string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(w.lockTTL / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				held, err := w.extendSessionLock(ctx, sessionID)
				if err != nil {
					if ctx.Err() == nil {
						w.log.Warn("Failed to extend session lock", "error", err, "session_id", sessionID)
					}
					continue
				}
				if !held {
					w.log.Warn("Session lock lost while processing", "session_id", sessionID)
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (w *Worker) releaseSessionLock(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, w.redisClient, []string{sessionLockKey(sessionID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release session lock", "error", err, "session_id", sessionID)
	}
}
