package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/pricebot/pricebot/numeric"
)

// openTestDB connects to PRICEBOT_TEST_DSN and applies the schema in a
// throwaway Postgres schema dropped at cleanup.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("PRICEBOT_TEST_DSN")
	if dsn == "" {
		t.Skip("PRICEBOT_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	// search_path is per connection
	db.SetMaxOpenConns(1)

	schema := fmt.Sprintf("pricebot_test_%d", time.Now().UnixNano())
	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "0001_products.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, q := range []string{
		"CREATE SCHEMA " + schema,
		"SET search_path TO " + schema,
		string(ddl),
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("setup %q: %v", q, err)
		}
	}
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = db.Close()
	})
	return db
}

func TestPostgresUpsertSupersedesWithinBand(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(openTestDB(t), PostgresOptions{})

	for _, p := range []Product{
		product("米", numeric.FloatNumber(1.5), 1, 900, "A", "北"),
		product("米", numeric.FloatNumber(1.52), 2, 880, "A", "北"),
		product("米", numeric.IntNumber(5), 0, 2000, "A", "北"),
		product("米", numeric.FloatNumber(1.54), 1, 850, "A", "北"),
	} {
		if err := s.Upsert(ctx, p); err != nil {
			t.Fatalf("upsert %+v: %v", p, err)
		}
	}
	rows, err := s.FindByName(ctx, "米", MaxResults)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	var prices []int64
	for _, r := range rows {
		prices = append(prices, r.Price)
	}
	// 1.54 typed with one decimal covers (1.49, 1.59) and replaces both
	// earlier fractional rows. Order is by unit price.
	if want := []int64{2000, 850}; !slices.Equal(prices, want) {
		t.Fatalf("prices = %v, want %v", prices, want)
	}
}

func TestPostgresNamesSearchAndCache(t *testing.T) {
	ctx := context.Background()
	s := NewPostgresStore(openTestDB(t), PostgresOptions{NamesTTL: time.Minute})

	if err := s.Upsert(ctx, product("Coffee豆", numeric.IntNumber(200), 0, 898, "K", "駅前")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if names, _ := s.Names(ctx); !slices.Equal(names, []string{"Coffee豆"}) {
		t.Fatalf("names = %v", names)
	}
	if err := s.Upsert(ctx, product("a.b", numeric.IntNumber(1), 0, 10, "K", "駅前")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if names, _ := s.Names(ctx); len(names) != 2 {
		t.Fatalf("names after upsert = %v, want the cache dropped", names)
	}
	if got, _ := s.SearchNames(ctx, "coffee"); !slices.Equal(got, []string{"Coffee豆"}) {
		t.Fatalf("case-insensitive search = %v", got)
	}
	if got, _ := s.SearchNames(ctx, "a.b"); !slices.Equal(got, []string{"a.b"}) {
		t.Fatalf("literal search = %v", got)
	}
	if ok, _ := s.Exists(ctx, "a.b"); !ok {
		t.Fatal("exists = false")
	}
	if err := s.Upsert(ctx, product("x", numeric.IntNumber(1), 0, -1, "K", "駅前")); err == nil {
		t.Fatal("negative price should violate the schema")
	}
}
