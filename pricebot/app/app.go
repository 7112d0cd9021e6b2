// Package app wires configuration, storage, the session registry and the
// Telegram runtime together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/pricebot/core/bootstrap"
	corecmd "github.com/m3rciful/pricebot/core/cmd"
	"github.com/m3rciful/pricebot/core/logger"
	coretelegram "github.com/m3rciful/pricebot/core/telegram"
	"github.com/m3rciful/pricebot/core/telegram/router"
	"github.com/m3rciful/pricebot/pricebot/catalog"
	"github.com/m3rciful/pricebot/pricebot/config"
	"github.com/m3rciful/pricebot/pricebot/talker"
	"github.com/m3rciful/pricebot/pricebot/transport"
)

// App is a bootstrapped bot ready to run.
type App struct {
	cfg    *config.Config
	infra  *bootstrap.Result
	store  catalog.Store
	talker *talker.Talker
}

// Options lets callers replace bootstrap steps, mostly in tests.
type Options struct {
	Bootstrap bootstrap.Options
}

// Bootstrap adapts New to the core runner.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	return New(ctx, cfg, Options{})
}

// New initializes logging and storage, runs the seeders and builds the
// session registry. The sweeper starts with the bot.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	bo := opts.Bootstrap
	bo.Config = cfg.CoreConfig()
	if cfg.UsesDatabase() {
		db := cfg.Database
		bo.Database = &db
	}
	if bo.Storage == nil {
		bo.Storage = storageFactory(cfg)
	}
	if cfg.Catalog.SeedFile != "" {
		bo.Seeders = append(bo.Seeders, seeder(cfg.Catalog.SeedFile))
	}

	infra, err := bootstrap.Run(ctx, bo)
	if err != nil {
		return nil, err
	}
	store, ok := infra.Storage.(catalog.Store)
	if !ok {
		_ = infra.Close()
		return nil, fmt.Errorf("app: storage %T is not a catalog store", infra.Storage)
	}

	topts, err := cfg.TalkerOptions(store)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	tk, err := talker.New(topts)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	logger.Info(ctx, "app", "wired",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Catalog.Driver),
		slog.Duration("ttl", tk.TTL()),
	)
	return &App{cfg: cfg, infra: infra, store: store, talker: tk}, nil
}

func storageFactory(cfg *config.Config) bootstrap.StorageFactory {
	return func(_ context.Context, db any) (bootstrap.Storage, error) {
		if !cfg.UsesDatabase() {
			return catalog.NewMemoryStore(), nil
		}
		pool, ok := db.(*sqlx.DB)
		if !ok || pool == nil {
			return nil, errors.New("postgres catalog requires a database connection")
		}
		return catalog.NewPostgresStore(pool, cfg.PostgresOptions()), nil
	}
}

func seeder(path string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, storage bootstrap.Storage) error {
		store, ok := storage.(catalog.Store)
		if !ok {
			return fmt.Errorf("seed: storage %T is not a catalog store", storage)
		}
		rows, err := catalog.LoadSeed(path)
		if err != nil {
			return err
		}
		return catalog.Seed(ctx, store, rows)
	})
}

// Talker exposes the session registry.
func (a *App) Talker() *talker.Talker { return a.talker }

// TelegramRunOptions registers commands and the dialogue route, and ties the
// sweeper to the bot lifetime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	transport.RegisterCommands(reg, a.talker)

	routes := router.CommandRoutes(reg)
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{
		Dialogue: transport.DialogueHandler(a.talker, transport.Options{ErrorText: a.cfg.Dialogue.ErrorText}),
	})...)

	core := a.cfg.CoreConfig()
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			a.talker.Start(ctx)
			return nil
		},
		OnStop: func(context.Context, coretelegram.Runtime) error {
			return a.talker.Close()
		},
	}, nil
}

// Close stops the sweeper, releases live sessions and closes the database pool.
func (a *App) Close() error {
	return errors.Join(a.talker.Close(), a.infra.Close())
}
