package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/pricebot/core/config"
	coredatabase "github.com/m3rciful/pricebot/core/database"
	"github.com/m3rciful/pricebot/core/logger"
)

// Options control the bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config
	// Database is nil when the application keeps its data in memory.
	Database *coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error

	Storage StorageFactory
	Seeders []Seeder
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB      *sqlx.DB
	Storage Storage
}

// Close releases the database pool if one was opened.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects and migrates the database when one is
// configured, builds the storage and runs the seeders in order.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if opts.Database != nil {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, *opts.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, *opts.Database); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	if opts.Storage != nil {
		var db any
		if res.DB != nil {
			db = res.DB
		}
		storage, err := opts.Storage(ctx, db)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: storage init failed: %w", err)
		}
		res.Storage = storage
	}

	for i, s := range opts.Seeders {
		start := time.Now()
		if err := s.Seed(ctx, res.Storage); err != nil {
			logger.Error(ctx, "db.seed", "seed",
				slog.String("status", "fail"),
				slog.Int("index", i),
				slog.String("err", err.Error()),
			)
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
		logger.Debug(ctx, "db.seed", "seed",
			slog.String("status", "ok"),
			slog.Int("index", i),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return res, nil
}
