// Package catalog stores product price records.
//
// A product row is identified by its natural key (name, amount, shop, branch);
// registering a row with the same key supersedes the previous one.
package catalog

import (
	"context"
	"errors"
	"math"

	"github.com/m3rciful/pricebot/pricebot/numeric"
)

// ErrClosed is returned by a Handle after Release.
var ErrClosed = errors.New("catalog: handle released")

// MaxResults caps the number of rows returned for a single product lookup.
const MaxResults = 5

// Product is one price observation for a product at a shop branch.
type Product struct {
	Name   string
	Amount numeric.Number
	// AmountDecimals is the number of decimal digits the amount was typed with.
	// It widens the natural key match for fractional amounts.
	AmountDecimals int
	Price          int64
	Shop           string
	Branch         string
}

// UnitPrice returns price per unit of amount, or +Inf for a zero amount.
func (p Product) UnitPrice() float64 {
	a := p.Amount.Value()
	if a == 0 {
		return math.Inf(1)
	}
	return float64(p.Price) / a
}

// AmountBand describes which stored amounts count as "the same" amount.
// Exact bands match by equality; otherwise Lo < amount < Hi.
type AmountBand struct {
	Exact bool
	Value float64
	Lo    float64
	Hi    float64
}

// BandFor derives the amount band from the typed precision: an amount typed
// with d decimals matches anything within half a unit of the d-th decimal.
// Integral input matches exactly.
func BandFor(amount numeric.Number, decimals int) AmountBand {
	v := amount.Value()
	if decimals <= 0 {
		return AmountBand{Exact: true, Value: v, Lo: v, Hi: v}
	}
	half := 0.5 * math.Pow10(-decimals)
	return AmountBand{Value: v, Lo: v - half, Hi: v + half}
}

// Contains reports whether a stored amount falls into the band.
func (b AmountBand) Contains(amount float64) bool {
	if b.Exact {
		return amount == b.Value
	}
	return amount > b.Lo && amount < b.Hi
}

// SameKey reports whether stored supersedes-match p under the natural key.
func (p Product) SameKey(stored Product) bool {
	if p.Name != stored.Name || p.Shop != stored.Shop || p.Branch != stored.Branch {
		return false
	}
	return BandFor(p.Amount, p.AmountDecimals).Contains(stored.Amount.Value())
}

// Store is the product persistence contract used by the responders.
type Store interface {
	// FindByName returns rows with exactly this name ordered by unit price, then amount.
	FindByName(ctx context.Context, name string, limit int) ([]Product, error)
	// SearchNames returns distinct names containing fragment, case-insensitively, sorted.
	SearchNames(ctx context.Context, fragment string) ([]string, error)
	// Names returns all distinct product names.
	Names(ctx context.Context) ([]string, error)
	// Exists reports whether any row carries this exact name.
	Exists(ctx context.Context, name string) (bool, error)
	// Upsert removes rows sharing p's natural key and inserts p.
	Upsert(ctx context.Context, p Product) error
	// All lists every stored row.
	All(ctx context.Context) ([]Product, error)
}

func numberFromDB(v float64) numeric.Number {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < math.MaxInt64 {
		return numeric.IntNumber(int64(v))
	}
	return numeric.FloatNumber(v)
}
