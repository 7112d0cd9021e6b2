package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/pricebot/core/logger"
	tghelpers "github.com/m3rciful/pricebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const seenTTL = 10 * time.Second

// seen remembers recent update IDs so stacked logger middleware logs each
// update once.
type seen struct {
	mu  sync.Mutex
	ids map[int]time.Time
}

func (s *seen) first(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, ts := range s.ids {
		if now.Sub(ts) > seenTTL {
			delete(s.ids, k)
		}
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = now
	return true
}

var received = &seen{ids: make(map[int]time.Time)}

// LoggerMiddleware stores the request context on c and logs one sampled
// receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		var chatID, userID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		user := c.Sender()
		if user != nil {
			userID = user.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)

		ctx := logger.WithRID(logger.Background(), rid)
		ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
		ctx = logger.WithLogger(ctx, logger.Component("tg"))
		tghelpers.StoreContext(c, ctx)

		if logger.ShouldSampleDebug() && received.first(upd.ID, time.Now()) {
			attrs := []slog.Attr{
				slog.String("status", "ok"),
				slog.String("kind", UpdateKind(c)),
			}
			if user != nil && user.LanguageCode != "" {
				attrs = append(attrs, slog.String("lang", user.LanguageCode))
			}
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.LogEvent(ctx, logger.Component("tg"), slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
