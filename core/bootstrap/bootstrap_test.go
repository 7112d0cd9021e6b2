package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/pricebot/core/config"
	coredatabase "github.com/m3rciful/pricebot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	var seeded []string
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect called without a database config")
			return nil, nil
		},
		Storage: func(_ context.Context, db any) (Storage, error) {
			if db != nil {
				t.Fatalf("db = %v, want nil", db)
			}
			return "mem", nil
		},
		Seeders: []Seeder{
			SeederFunc(func(_ context.Context, s Storage) error { seeded = append(seeded, "a:"+s.(string)); return nil }),
			SeederFunc(func(_ context.Context, s Storage) error { seeded = append(seeded, "b:"+s.(string)); return nil }),
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Storage != "mem" || res.DB != nil {
		t.Fatalf("result = %+v", res)
	}
	if len(seeded) != 2 || seeded[0] != "a:mem" || seeded[1] != "b:mem" {
		t.Fatalf("seeders ran as %v", seeded)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunStopsAtFailingStep(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Seeders: []Seeder{
			SeederFunc(func(context.Context, Storage) error { calls++; return boom }),
			SeederFunc(func(context.Context, Storage) error { calls++; return nil }),
		},
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("err = %v calls = %d", err, calls)
	}

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "db", Name: "prices"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("connect err = %v", err)
	}

	if _, err := Run(context.Background(), Options{LoggerInit: noLogger}); err == nil {
		t.Fatal("nil config should fail")
	}
	if _, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return boom },
	}); !errors.Is(err, boom) {
		t.Fatalf("logger err = %v", err)
	}
}
