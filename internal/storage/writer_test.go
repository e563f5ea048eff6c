package storage

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func countingJob(n *atomic.Int64) WriteJob {
	return WriteJobFunc(func(ctx context.Context, pool *pgxpool.Pool) error {
		n.Add(1)
		return nil
	})
}

func TestBatchWriterFlushesOnShutdown(t *testing.T) {
	t.Parallel()

	var executed atomic.Int64
	w := NewBatchWriter(nil, 16, 100, 60_000)

	for i := 0; i < 3; i++ {
		w.Enqueue(countingJob(&executed))
	}
	w.Shutdown()

	if got := executed.Load(); got != 3 {
		t.Errorf("executed = %d, want 3", got)
	}
}

func TestBatchWriterFlushesWhenBatchFills(t *testing.T) {
	t.Parallel()

	var executed atomic.Int64
	// Interval long enough that only the batch-size trigger can fire.
	w := NewBatchWriter(nil, 16, 2, 60_000)
	defer w.Shutdown()

	w.Enqueue(countingJob(&executed))
	w.Enqueue(countingJob(&executed))

	deadline := time.Now().Add(2 * time.Second)
	for executed.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("executed = %d before deadline, want 2", executed.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBatchWriterFlushesOnInterval(t *testing.T) {
	t.Parallel()

	var executed atomic.Int64
	// Batch size high enough that only the ticker can trigger the flush.
	w := NewBatchWriter(nil, 16, 100, 10)
	defer w.Shutdown()

	w.Enqueue(countingJob(&executed))

	deadline := time.Now().Add(2 * time.Second)
	for executed.Load() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("interval flush never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	// No consumer loop: exercise just the non-blocking enqueue path.
	w := &BatchWriter{jobs: make(chan WriteJob, 1)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var n atomic.Int64
		w.Enqueue(countingJob(&n))
		w.Enqueue(countingJob(&n))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	if len(w.jobs) != 1 {
		t.Errorf("queued jobs = %d, want 1", len(w.jobs))
	}
}
