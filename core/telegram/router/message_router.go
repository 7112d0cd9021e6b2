package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/pricebot/core/telegram"
	"github.com/m3rciful/pricebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls routing of plain text updates.
type TextOptions struct {
	// Dialogue receives every message that is not a registered command.
	Dialogue tele.HandlerFunc
	// UnknownCommand answers slash commands missing from the registry.
	UnknownCommand tele.HandlerFunc
}

// TextRoutes builds the OnText route. Slash-prefixed text resolves through
// reg so aliases work. Anything else goes to the dialogue handler.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := strings.TrimSpace(c.Text())

		if strings.HasPrefix(text, "/") {
			if reg != nil {
				if key, cmd, ok := reg.LookupCommand(text); ok {
					return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
						return cmd.Handler(c)
					})
				}
			}
			if opts.UnknownCommand != nil {
				return handleWithSummary(c, "unknown_command", start, func() error {
					return opts.UnknownCommand(c)
				})
			}
		}

		if opts.Dialogue == nil {
			logHandlerSummary(c, "dialogue", start, nil, "skip")
			return nil
		}
		return handleWithSummary(c, "dialogue", start, func() error {
			return opts.Dialogue(c)
		})
	}

	return []tg.Route{{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}}
}
