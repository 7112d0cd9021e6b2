package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m3rciful/pricebot/core/bootstrap"
	coreconfig "github.com/m3rciful/pricebot/core/config"
	coretelegram "github.com/m3rciful/pricebot/core/telegram"
	"github.com/m3rciful/pricebot/pricebot/config"

	tele "gopkg.in/telebot.v4"
)

func newApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(seed, []byte("products:\n  - {name: 牛乳, amount: \"1\", price: 198, shop: イオン, branch: 大宮}\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	body := "telegram:\n  token: \"1:a\"\ncatalog:\n  driver: memory\n  seed_file: " + seed + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	a, err := New(context.Background(), cfg, Options{Bootstrap: bootstrap.Options{
		LoggerInit: func(*coreconfig.Config) error { return nil },
	}})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNewSeedsMemoryCatalog(t *testing.T) {
	a := newApp(t)
	reply, ok, err := a.Talker().Dialogue(context.Background(), "7", "牛乳")
	if err != nil || !ok {
		t.Fatalf("dialogue = %q, %v, %v", reply, ok, err)
	}
	if reply != "牛乳\n1, 198円: イオン 大宮" {
		t.Fatalf("reply = %q", reply)
	}
}

func TestTelegramRunOptions(t *testing.T) {
	a := newApp(t)
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	var text bool
	for _, r := range opts.Routes {
		if r.Endpoint == tele.OnText {
			text = true
		}
	}
	if !text {
		t.Fatal("missing text route")
	}
	if _, _, ok := opts.Registry.LookupCommand("/cancel"); !ok {
		t.Fatal("missing /cancel command")
	}
	if err := opts.OnStart(context.Background(), coretelegram.Runtime{}); err != nil {
		t.Fatalf("on start: %v", err)
	}
	if err := opts.OnStop(context.Background(), coretelegram.Runtime{}); err != nil {
		t.Fatalf("on stop: %v", err)
	}
}
