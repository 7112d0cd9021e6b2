package helpers

import (
	"context"

	"github.com/m3rciful/pricebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxSlot = "pricebot.ctx"

// StoreContext caches ctx on the update so later middleware and handlers
// share one correlation id.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxSlot, ctx)
	}
}

// BuildContext returns the cached update context, creating it on first use
// with the update, user and chat ids attached.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxSlot).(context.Context); ok {
		return ctx
	}
	var chatID, userID int64
	if ch := c.Chat(); ch != nil {
		chatID = ch.ID
	}
	if u := c.Sender(); u != nil {
		userID = u.ID
	}
	updateID := c.Update().ID
	ctx := logger.WithUpdateMeta(context.Background(), updateID, userID, chatID)
	ctx = logger.WithRID(ctx, logger.BuildRID(updateID, chatID, userID))
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records the handler name on the cached context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}
