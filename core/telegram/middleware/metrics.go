package middleware

import (
	tele "gopkg.in/telebot.v4"
)

const sentKey = "messages"

// countingContext counts successful sends so the handler summary can report them.
type countingContext struct{ tele.Context }

func (m countingContext) inc(err error) error {
	if err == nil {
		n, _ := m.Get(sentKey).(int)
		m.Set(sentKey, n+1)
	}
	return err
}

// Send proxies tele.Context.Send while counting replies.
func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	return m.inc(m.Context.Send(what, opts...))
}

// Reply proxies tele.Context.Reply while counting replies.
func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	return m.inc(m.Context.Reply(what, opts...))
}

// MessageMetricsMiddleware wraps c so sends made downstream are counted.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(sentKey, 0)
		return next(countingContext{Context: c})
	}
}

// SentCount reads the number of replies sent for the current update.
func SentCount(c tele.Context) int {
	n, _ := c.Get(sentKey).(int)
	return n
}
