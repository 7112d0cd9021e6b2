package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any
	sent  []any
}

func newContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		msg:   &tele.Message{Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Sender() *tele.User     { return f.msg.Sender }
func (f *fakeContext) Chat() *tele.Chat       { return f.msg.Chat }
func (f *fakeContext) Text() string           { return f.msg.Text }
func (f *fakeContext) Update() tele.Update    { return tele.Update{ID: 1, Message: f.msg} }
func (f *fakeContext) Get(k string) any       { return f.store[k] }
func (f *fakeContext) Set(k string, v any)    { f.store[k] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestUpdateKind(t *testing.T) {
	if got := UpdateKind(newContext(1, "/cancel")); got != "command" {
		t.Fatalf("kind = %q, want command", got)
	}
	if got := UpdateKind(newContext(1, "牛乳")); got != "message" {
		t.Fatalf("kind = %q, want message", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		Exclude:   map[string]struct{}{"command": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	_ = h(newContext(1, "牛乳"))
	_ = h(newContext(1, "卵"))
	_ = h(newContext(1, "/cancel"))
	_ = h(newContext(2, "卵"))

	if handled != 3 || limited != 1 {
		t.Fatalf("handled = %d limited = %d, want 3 and 1", handled, limited)
	}
}

func TestRecoverAndMetrics(t *testing.T) {
	c := newContext(1, "x")
	h := RecoverMiddleware(MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("a")
		_ = c.Send("b")
		panic("boom")
	}))
	if err := h(c); err != nil {
		t.Fatalf("recovered handler returned %v", err)
	}
	if SentCount(c) != 2 {
		t.Fatalf("SentCount = %d, want 2", SentCount(c))
	}
}
