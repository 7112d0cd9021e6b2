package router

import (
	"errors"
	"testing"

	tg "github.com/m3rciful/pricebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	msg   *tele.Message
	store map[string]any
}

func newContext(text string) *fakeContext {
	return &fakeContext{
		msg:   &tele.Message{Text: text, Sender: &tele.User{ID: 5}, Chat: &tele.Chat{ID: 5}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Message() *tele.Message { return f.msg }
func (f *fakeContext) Sender() *tele.User     { return f.msg.Sender }
func (f *fakeContext) Chat() *tele.Chat       { return f.msg.Chat }
func (f *fakeContext) Text() string           { return f.msg.Text }
func (f *fakeContext) Update() tele.Update    { return tele.Update{ID: 9, Message: f.msg} }
func (f *fakeContext) Get(k string) any       { return f.store[k] }
func (f *fakeContext) Set(k string, v any)    { f.store[k] = v }

func TestTextRoutesDispatch(t *testing.T) {
	var got []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/help", tg.Command{
		Description: "help",
		Aliases:     []string{"h"},
		Handler:     func(tele.Context) error { got = append(got, "help"); return nil },
	})
	routes := TextRoutes(reg, TextOptions{
		Dialogue:       func(c tele.Context) error { got = append(got, "dialogue:"+c.Text()); return nil },
		UnknownCommand: func(tele.Context) error { got = append(got, "unknown"); return nil },
	})
	if len(routes) != 1 || routes[0].Endpoint != tele.OnText {
		t.Fatalf("routes = %+v", routes)
	}
	h := routes[0].Handler
	for _, in := range []string{"/h", "牛乳", "/nope", "help"} {
		if err := h(newContext(in)); err != nil {
			t.Fatalf("handle %q: %v", in, err)
		}
	}
	want := []string{"help", "dialogue:牛乳", "unknown", "dialogue:help"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

type codedErr struct{}

func (codedErr) Error() string { return "x" }
func (codedErr) Code() string  { return "store down" }

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(codedErr{}); got != "STORE_DOWN" {
		t.Fatalf("code = %q", got)
	}
	if got := deriveErrorCode(errors.New("x")); got != "ERRORSTRING" {
		t.Fatalf("code = %q", got)
	}
	if got := normalizeHandlerName("/Start"); got != "start" {
		t.Fatalf("name = %q", got)
	}
}
