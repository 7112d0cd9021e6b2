package telegram

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestRegistryLookupAndList(t *testing.T) {
	reg := NewRegistry()
	noop := func(tele.Context) error { return nil }
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "start"})
	reg.RegisterCommand("/cancel", Command{Handler: noop, Description: "cancel", Aliases: []string{"stop"}})
	reg.RegisterCommand("/debug", Command{Handler: noop, Description: "debug", Hidden: true})
	reg.RegisterCommand("nohash", Command{Handler: noop, Description: "x"})
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "dup"})

	if len(reg.Commands()) != 3 {
		t.Fatalf("commands = %d, want 3", len(reg.Commands()))
	}
	visible := reg.ListCommands(true)
	if len(visible) != 2 || visible[0].Text != "/cancel" || visible[1].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if reg.Commands()["/start"].Description != "start" {
		t.Fatal("duplicate registration replaced the original")
	}

	for _, in := range []string{"/cancel", "cancel", "/stop", "/cancel@price_bot", "/cancel now"} {
		if key, _, ok := reg.LookupCommand(in); !ok || key != "/cancel" {
			t.Fatalf("LookupCommand(%q) = %q, %v", in, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand("牛乳"); ok {
		t.Fatal("plain text resolved to a command")
	}
}
