package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// MemoryStore keeps products in process memory. It backs tests and the
// "memory" catalog driver used for local development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []Product
}

// NewMemoryStore returns a store pre-filled with rows.
func NewMemoryStore(rows ...Product) *MemoryStore {
	return &MemoryStore{rows: append([]Product(nil), rows...)}
}

// FindByName returns rows with exactly this name ordered by unit price, then amount.
func (m *MemoryStore) FindByName(_ context.Context, name string, limit int) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Product
	for _, p := range m.rows {
		if p.Name == name {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ui, uj := out[i].UnitPrice(), out[j].UnitPrice()
		if ui != uj {
			return ui < uj
		}
		return out[i].Amount.Value() < out[j].Amount.Value()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SearchNames returns distinct names containing fragment, case-insensitively.
func (m *MemoryStore) SearchNames(_ context.Context, fragment string) ([]string, error) {
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(fragment))
	if err != nil {
		return nil, fmt.Errorf("compile name pattern: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.distinct(func(p Product) bool { return re.MatchString(p.Name) }), nil
}

// Names returns all distinct product names sorted bytewise.
func (m *MemoryStore) Names(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.distinct(func(Product) bool { return true }), nil
}

// Exists reports whether any row carries this exact name.
func (m *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.rows {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Upsert removes rows sharing p's natural key and appends p.
func (m *MemoryStore) Upsert(_ context.Context, p Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	for _, row := range m.rows {
		if p.SameKey(row) {
			continue
		}
		kept = append(kept, row)
	}
	m.rows = append(kept, p)
	return nil
}

// All lists every stored row in insertion order.
func (m *MemoryStore) All(_ context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Product(nil), m.rows...), nil
}

func (m *MemoryStore) distinct(keep func(Product) bool) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range m.rows {
		if !keep(p) {
			continue
		}
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
