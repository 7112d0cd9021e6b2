package catalog

import (
	"context"
	"sync"
	"sync/atomic"
)

// Handle is a responder's lease on the shared Store. Release may be called
// any number of times; every call after the first is a no-op.
type Handle struct {
	store    Store
	once     sync.Once
	released atomic.Bool
}

var _ Store = (*Handle)(nil)

// NewHandle leases the shared store.
func NewHandle(store Store) *Handle {
	return &Handle{store: store}
}

// Release ends the lease.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.released.Store(true)
	})
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool {
	return h.released.Load()
}

func (h *Handle) check() error {
	if h == nil || h.store == nil || h.released.Load() {
		return ErrClosed
	}
	return nil
}

// FindByName delegates to the leased store.
func (h *Handle) FindByName(ctx context.Context, name string, limit int) ([]Product, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.store.FindByName(ctx, name, limit)
}

// SearchNames delegates to the leased store.
func (h *Handle) SearchNames(ctx context.Context, fragment string) ([]string, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.store.SearchNames(ctx, fragment)
}

// Names delegates to the leased store.
func (h *Handle) Names(ctx context.Context) ([]string, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.store.Names(ctx)
}

// Exists delegates to the leased store.
func (h *Handle) Exists(ctx context.Context, name string) (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	return h.store.Exists(ctx, name)
}

// Upsert delegates to the leased store.
func (h *Handle) Upsert(ctx context.Context, p Product) error {
	if err := h.check(); err != nil {
		return err
	}
	return h.store.Upsert(ctx, p)
}

// All delegates to the leased store.
func (h *Handle) All(ctx context.Context) ([]Product, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	return h.store.All(ctx)
}
