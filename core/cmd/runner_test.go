package cmd

import (
	"context"
	"errors"
	"testing"

	coreconfig "github.com/m3rciful/pricebot/core/config"
	coretelegram "github.com/m3rciful/pricebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	events *[]string
}

func (a fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		OnStart: func(context.Context, coretelegram.Runtime) error {
			*a.events = append(*a.events, "start")
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			*a.events = append(*a.events, "stop")
			return nil
		},
	}, nil
}

func (a fakeApp) Close() error {
	*a.events = append(*a.events, "close")
	return nil
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	t.Setenv("PRICEBOT_TEST_CONFIG", "/etc/pricebot.yaml")
	var events []string
	err := Run(Options{
		ConfigEnvVar: "PRICEBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			if path != "/etc/pricebot.yaml" {
				t.Fatalf("path = %q", path)
			}
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return fakeApp{events: &events}, nil
		},
		ShutdownLogger: func() error { events = append(events, "logs"); return nil },
		RunTelegram: func(ctx context.Context, ro coretelegram.RunOptions) error {
			if err := ro.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			return ro.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"start", "stop", "close", "logs"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestRunRejectsMissingInputs(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatal("empty options should fail")
	}
	t.Setenv("PRICEBOT_EMPTY", "")
	err := Run(Options{
		ConfigEnvVar: "PRICEBOT_EMPTY",
		LoadConfig:   func(string) (ConfigCarrier, error) { return nil, nil },
		Bootstrap:    func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if !errors.Is(err, errNoConfigPath) {
		t.Fatalf("err = %v, want errNoConfigPath", err)
	}
	err = Run(Options{
		DefaultConfigPath: "x.yaml",
		LoadConfig:        func(string) (ConfigCarrier, error) { return carrier{}, nil },
		Bootstrap:         func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, nil },
	})
	if err == nil {
		t.Fatal("config without core section should fail")
	}
}
