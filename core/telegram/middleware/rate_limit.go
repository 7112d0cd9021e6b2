package middleware

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/m3rciful/pricebot/core/logger"
	tghelpers "github.com/m3rciful/pricebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that bypass the limiter.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

// RateLimitMiddleware drops updates that arrive less than opts.Interval after
// the previous accepted update from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var mu sync.Mutex
	// entries expire on their own so idle users do not accumulate
	lastSeen := cache.New(opts.Interval, 10*opts.Interval+time.Minute)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[UpdateKind(c)]; skip {
				return next(c)
			}

			key := strconv.FormatInt(user.ID, 10)
			mu.Lock()
			if _, limited := lastSeen.Get(key); limited {
				mu.Unlock()
				logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
					slog.String("status", "rate_limited"),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen.SetDefault(key, struct{}{})
			mu.Unlock()
			return next(c)
		}
	}
}
