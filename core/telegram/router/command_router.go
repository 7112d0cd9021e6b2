package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/pricebot/core/logger"
	tg "github.com/m3rciful/pricebot/core/telegram"
	"github.com/m3rciful/pricebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRoutes binds every registered command to its endpoint, wrapped with
// the shared recover and logger middleware and a handler summary.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, def := range reg.Commands() {
		handler := def.Handler
		label := normalizeHandlerName(name)
		h := func(c tele.Context) error {
			return handleWithSummary(c, label, time.Now(), func() error { return handler(c) })
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
		})
	}
	logger.Info(context.Background(), "tg.wire", "commands",
		slog.String("status", "ok"),
		slog.Int("count", len(routes)),
	)
	return routes
}
