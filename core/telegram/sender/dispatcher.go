// Package sender delivers outbound Bot API calls off the update goroutine.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/core/telegram/netutil"
)

var (
	// ErrQueueClosed is returned when enqueue is attempted after dispatcher stop.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull indicates the lane is saturated and the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	// QueueSize is the buffer of each lane.
	QueueSize int
	// Lanes is the number of workers. Jobs for one chat always share a lane.
	Lanes        int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound calls asynchronously with retries. Replies to
// the same chat are delivered in the order they were enqueued.
type Dispatcher struct {
	opts  Options
	lanes []chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	errs   atomic.Uint64
}

// NewDispatcher starts the lane workers, filling zero options with defaults.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Lanes <= 0 {
		opts.Lanes = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 2 * time.Second
	}
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 12 * time.Second
	}

	d := &Dispatcher{opts: opts, lanes: make([]chan job, opts.Lanes)}
	d.wg.Add(opts.Lanes)
	for i := range d.lanes {
		d.lanes[i] = make(chan job, opts.QueueSize)
		go d.worker(d.lanes[i])
	}
	return d
}

// Enqueue schedules run on the lane owned by the chat stored in ctx.
// run must be idempotent if retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.lane(logger.ChatIDFrom(ctx)) <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) lane(chatID int64) chan job {
	if chatID < 0 {
		chatID = -chatID
	}
	return d.lanes[chatID%int64(len(d.lanes))]
}

// ErrorCount returns the number of jobs that failed after all retries.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close stops accepting jobs and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, l := range d.lanes {
		close(l)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) worker(jobs <-chan job) {
	defer d.wg.Done()
	for j := range jobs {
		if err := d.deliver(j); err != nil {
			d.errs.Add(1)
		}
	}
}

func (d *Dispatcher) deliver(j job) error {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attempts := d.opts.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = j.run(); err == nil {
			attrs := jobAttrs(j)
			if attempt > 1 {
				attrs = append(attrs, slog.Int("attempt", attempt))
			}
			logger.Debug(j.ctx, "tg.sender", "send.success",
				append(attrs, slog.Duration("duration", logger.Took(start)))...)
			return nil
		}
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}
		delay := d.opts.RetryBackoff * time.Duration(attempt)
		logger.Debug(j.ctx, "tg.sender", "send.retry",
			append(jobAttrs(j),
				slog.String("status", "retry"),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)...)
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = attempts
		case <-time.After(delay):
		}
	}

	logger.Error(j.ctx, "tg.sender", "send.fail",
		append(jobAttrs(j),
			slog.String("status", "fail"),
			slog.String("err", netutil.Redact(err)),
			slog.String("error_kind", netutil.Classify(err)),
			slog.Int("attempts", attempts),
			slog.Duration("duration", logger.Took(start)),
		)...)
	return err
}

func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}
