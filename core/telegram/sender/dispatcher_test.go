package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/pricebot/core/logger"
)

func TestDispatcherKeepsChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 3, QueueSize: 32})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 7, 42)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 20; i++ {
		if err := d.Enqueue(ctx, "send.text", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	d.Close()

	if len(got) != 20 {
		t.Fatalf("delivered %d jobs, want 20", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("delivery order = %v", got)
		}
	}
}

func TestDispatcherCountsFailuresWithoutRetryingPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Lanes: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	calls := 0
	if err := d.Enqueue(context.Background(), "send.text", "", func() error {
		calls++
		return errors.New("telegram: chat not found (400)")
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	if err := d.Enqueue(context.Background(), "a", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}
