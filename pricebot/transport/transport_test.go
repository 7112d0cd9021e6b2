package transport

import (
	"context"
	"errors"
	"testing"

	tg "github.com/m3rciful/pricebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any
	sent  []string
}

func newContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		msg:   &tele.Message{Text: text, Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User  { return f.msg.Sender }
func (f *fakeContext) Chat() *tele.Chat    { return f.msg.Chat }
func (f *fakeContext) Text() string        { return f.msg.Text }
func (f *fakeContext) Update() tele.Update { return tele.Update{ID: 3, Message: f.msg} }
func (f *fakeContext) Get(k string) any    { return f.store[k] }
func (f *fakeContext) Set(k string, v any) { f.store[k] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what.(string))
	return nil
}

type fakeTalker struct {
	users   []string
	reply   string
	ok      bool
	err     error
	cancels int
}

func (f *fakeTalker) Dialogue(_ context.Context, userID, _ string) (string, bool, error) {
	f.users = append(f.users, userID)
	return f.reply, f.ok, f.err
}

func (f *fakeTalker) Cancel(context.Context, string) (string, bool) {
	f.cancels++
	return "cancelled", f.cancels == 1
}

func (f *fakeTalker) Help(context.Context, string) string { return "help" }

func TestDialogueHandler(t *testing.T) {
	tk := &fakeTalker{reply: "牛乳\n1, 198円: イオン 大宮", ok: true}
	h := DialogueHandler(tk, Options{ErrorText: "oops"})

	c := newContext(42, "牛乳")
	if err := h(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(tk.users) != 1 || tk.users[0] != "42" {
		t.Fatalf("user keys = %v", tk.users)
	}
	if len(c.sent) != 1 || c.sent[0] != tk.reply {
		t.Fatalf("sent = %v", c.sent)
	}

	tk.ok, tk.reply = false, ""
	c = newContext(42, "cancel")
	_ = h(c)
	if len(c.sent) != 0 {
		t.Fatalf("absent reply was sent: %v", c.sent)
	}

	tk.err = errors.New("db down")
	c = newContext(42, "牛乳")
	_ = h(c)
	if len(c.sent) != 1 || c.sent[0] != "oops" {
		t.Fatalf("error reply = %v", c.sent)
	}
}

func TestRegisterCommands(t *testing.T) {
	reg := tg.NewRegistry()
	tk := &fakeTalker{}
	RegisterCommands(reg, tk)

	if got := len(reg.ListCommands(true)); got != 2 {
		t.Fatalf("visible commands = %d, want 2", got)
	}
	_, cancel, ok := reg.LookupCommand("/cancel")
	if !ok {
		t.Fatal("/cancel not registered")
	}
	c := newContext(1, "/cancel")
	_ = cancel.Handler(c)
	_ = cancel.Handler(c)
	if len(c.sent) != 1 || c.sent[0] != "cancelled" {
		t.Fatalf("cancel replies = %v", c.sent)
	}

	_, start, _ := reg.LookupCommand("/start")
	c = newContext(1, "/start")
	_ = start.Handler(c)
	if len(c.sent) != 1 || c.sent[0] != "help" {
		t.Fatalf("start reply = %v", c.sent)
	}
}
