package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by SendText. nil restores
// synchronous sends.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// SendText sends raw text to the current chat through the dispatcher, falling
// back to a direct send when the queue is full or closed.
func SendText(c tele.Context, text string, opts ...any) error {
	run := func() error { return c.Send(text, opts...) }
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, "send.text", "sendMessage", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("status", "skip"),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}
