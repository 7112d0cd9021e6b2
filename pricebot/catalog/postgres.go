package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"

	"github.com/m3rciful/pricebot/core/logger"
)

const (
	namesCacheKey = "names"

	defaultNamesTTL = 5 * time.Minute
)

type productRow struct {
	Name   string  `db:"name"`
	Amount float64 `db:"amount"`
	Price  int64   `db:"price"`
	Shop   string  `db:"shop"`
	Branch string  `db:"shop_branch"`
}

func (r productRow) product() Product {
	return Product{
		Name:   r.Name,
		Amount: numberFromDB(r.Amount),
		Price:  r.Price,
		Shop:   r.Shop,
		Branch: r.Branch,
	}
}

// PostgresStore implements Store on the products table.
// The distinct name list is cached and dropped on every Upsert.
type PostgresStore struct {
	db    *sqlx.DB
	names *cache.Cache
}

// PostgresOptions tunes PostgresStore.
type PostgresOptions struct {
	// NamesTTL bounds how long the distinct name list is served from cache.
	NamesTTL time.Duration
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db *sqlx.DB, opts PostgresOptions) *PostgresStore {
	ttl := opts.NamesTTL
	if ttl <= 0 {
		ttl = defaultNamesTTL
	}
	return &PostgresStore{
		db:    db,
		names: cache.New(ttl, 2*ttl),
	}
}

// FindByName returns rows with exactly this name ordered by unit price, then amount.
func (s *PostgresStore) FindByName(ctx context.Context, name string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = MaxResults
	}
	const q = `SELECT name, amount, price, shop, shop_branch
		FROM products
		WHERE name = $1
		ORDER BY price / NULLIF(amount, 0), amount
		LIMIT $2`

	start := time.Now()
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, q, name, limit); err != nil {
		logQueryFail(ctx, "find_by_name", start, err)
		return nil, fmt.Errorf("find products by name: %w", err)
	}
	logger.Debug(ctx, "catalog", "query",
		slog.String("op", "find_by_name"),
		slog.Int("count", len(rows)),
		slog.Duration("duration", logger.Took(start)),
	)

	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out, nil
}

// SearchNames matches names against fragment with a case-insensitive regex.
func (s *PostgresStore) SearchNames(ctx context.Context, fragment string) ([]string, error) {
	const q = `SELECT DISTINCT name FROM products WHERE name ~* $1 ORDER BY name`

	start := time.Now()
	var names []string
	if err := s.db.SelectContext(ctx, &names, q, regexp.QuoteMeta(fragment)); err != nil {
		logQueryFail(ctx, "search_names", start, err)
		return nil, fmt.Errorf("search product names: %w", err)
	}
	logger.Debug(ctx, "catalog", "query",
		slog.String("op", "search_names"),
		slog.Int("count", len(names)),
		slog.Duration("duration", logger.Took(start)),
	)
	return names, nil
}

// Names returns all distinct product names.
func (s *PostgresStore) Names(ctx context.Context) ([]string, error) {
	if cached, ok := s.names.Get(namesCacheKey); ok {
		names := cached.([]string)
		logger.Debug(ctx, "catalog", "query",
			slog.String("op", "names"),
			slog.String("cache", "hit"),
			slog.Int("count", len(names)),
		)
		return append([]string(nil), names...), nil
	}

	const q = `SELECT DISTINCT name FROM products ORDER BY name`
	start := time.Now()
	var names []string
	if err := s.db.SelectContext(ctx, &names, q); err != nil {
		logQueryFail(ctx, "names", start, err)
		return nil, fmt.Errorf("list product names: %w", err)
	}
	s.names.SetDefault(namesCacheKey, names)
	logger.Debug(ctx, "catalog", "query",
		slog.String("op", "names"),
		slog.String("cache", "miss"),
		slog.Int("count", len(names)),
		slog.Duration("duration", logger.Took(start)),
	)
	return append([]string(nil), names...), nil
}

// Exists reports whether any row carries this exact name.
func (s *PostgresStore) Exists(ctx context.Context, name string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM products WHERE name = $1)`
	var ok bool
	if err := s.db.GetContext(ctx, &ok, q, name); err != nil {
		return false, fmt.Errorf("check product %q: %w", name, err)
	}
	return ok, nil
}

// Upsert deletes the rows sharing p's natural key and inserts p in one transaction.
func (s *PostgresStore) Upsert(ctx context.Context, p Product) (err error) {
	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			logQueryFail(ctx, "upsert", start, err)
		}
	}()

	band := BandFor(p.Amount, p.AmountDecimals)
	var res sql.Result
	if band.Exact {
		res, err = tx.ExecContext(ctx,
			`DELETE FROM products WHERE name = $1 AND shop = $2 AND shop_branch = $3 AND amount = $4`,
			p.Name, p.Shop, p.Branch, band.Value)
	} else {
		res, err = tx.ExecContext(ctx,
			`DELETE FROM products WHERE name = $1 AND shop = $2 AND shop_branch = $3 AND amount > $4 AND amount < $5`,
			p.Name, p.Shop, p.Branch, band.Lo, band.Hi)
	}
	if err != nil {
		return fmt.Errorf("delete superseded products: %w", err)
	}
	superseded, _ := res.RowsAffected()

	row := productRow{
		Name:   p.Name,
		Amount: p.Amount.Value(),
		Price:  p.Price,
		Shop:   p.Shop,
		Branch: p.Branch,
	}
	if _, err = tx.NamedExecContext(ctx,
		`INSERT INTO products (name, amount, price, shop, shop_branch)
		VALUES (:name, :amount, :price, :shop, :shop_branch)`, row); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	s.names.Delete(namesCacheKey)

	logger.Info(ctx, "catalog", "product.upsert",
		slog.String("status", "ok"),
		slog.String("product", p.Name),
		slog.Int64("superseded", superseded),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// All lists every stored row.
func (s *PostgresStore) All(ctx context.Context) ([]Product, error) {
	const q = `SELECT name, amount, price, shop, shop_branch FROM products ORDER BY name, price`
	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.product())
	}
	return out, nil
}

func logQueryFail(ctx context.Context, op string, start time.Time, err error) {
	logger.Error(ctx, "catalog", "query",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.Duration("duration", logger.Took(start)),
		slog.String("err", err.Error()),
	)
}
