package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/pricebot/numeric"
)

type seedFile struct {
	Products []seedRow `yaml:"products"`
}

type seedRow struct {
	Name string `yaml:"name"`
	// Amount is kept as text so its typed precision survives decoding.
	Amount string `yaml:"amount"`
	Price  int64  `yaml:"price"`
	Shop   string `yaml:"shop"`
	Branch string `yaml:"branch"`
}

// LoadSeed reads a YAML product list. Names are canonicalised the same way
// the add form does it.
func LoadSeed(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	out := make([]Product, 0, len(f.Products))
	for i, r := range f.Products {
		name := CanonicalName(strings.TrimSpace(r.Name))
		amount, ok := numeric.Parse(r.Amount, numeric.ModeBoth)
		switch {
		case name == "" || strings.TrimSpace(r.Shop) == "":
			return nil, fmt.Errorf("seed product %d: name and shop are required", i)
		case !ok:
			return nil, fmt.Errorf("seed product %d (%s): invalid amount %q", i, name, r.Amount)
		case r.Price < 0:
			return nil, fmt.Errorf("seed product %d (%s): negative price", i, name)
		}
		out = append(out, Product{
			Name:           name,
			Amount:         amount,
			AmountDecimals: numeric.Decimals(r.Amount),
			Price:          r.Price,
			Shop:           strings.TrimSpace(r.Shop),
			Branch:         strings.TrimSpace(r.Branch),
		})
	}
	return out, nil
}

// Seed upserts rows into store in order, so later rows supersede earlier
// ones with the same natural key.
func Seed(ctx context.Context, store Store, rows []Product) error {
	for _, p := range rows {
		if err := store.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed %s: %w", p.Name, err)
		}
	}
	logger.Info(ctx, "db.seed", "catalog.seed",
		slog.String("status", "ok"),
		slog.Int("count", len(rows)),
	)
	return nil
}
