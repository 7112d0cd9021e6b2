// Package responder implements the per-session conversation engines:
// the add-product form and the price lookup.
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/pricebot/pricebot/catalog"
)

// State names a responder's position in its conversation.
type State string

const (
	// StateNew is the state of a responder that has not handled a turn yet.
	StateNew State = "new"
	// StateDone is terminal; the owner tears the session down.
	StateDone State = "done"
)

var (
	// ErrReservedState is returned when a caller tries to set StateNew or StateDone directly.
	ErrReservedState = errors.New("responder: new and done states are reserved")
	// ErrDone is returned by Respond after the conversation has finished.
	ErrDone = errors.New("responder: conversation finished")
)

// Responder handles one session's turns.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
	State() State
	// Close releases the store lease and forces StateDone. Extra calls are no-ops.
	Close() error
}

// Kind selects a responder implementation.
type Kind int

const (
	// KindLookup answers price lookups.
	KindLookup Kind = iota
	// KindAdd runs the add-product form.
	KindAdd
)

func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindLookup:
		return "lookup"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a configured status name onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return KindAdd, nil
	case "lookup", "products":
		return KindLookup, nil
	default:
		return 0, fmt.Errorf("unknown responder status %q; allowed: add, lookup", s)
	}
}

// Deps are shared by every responder built by NewResponder.
type Deps struct {
	Store    catalog.Store
	Dialogue *Dialogue
}

// NewResponder builds the responder for kind. Each responder leases deps.Store.
func NewResponder(kind Kind, deps Deps) (Responder, error) {
	if deps.Store == nil {
		return nil, errors.New("responder: nil store")
	}
	if deps.Dialogue == nil {
		deps.Dialogue = DefaultDialogue()
	}
	switch kind {
	case KindAdd:
		return NewAddResponder(deps)
	case KindLookup:
		return NewProductResponder(deps), nil
	default:
		return nil, fmt.Errorf("responder: unsupported kind %v", kind)
	}
}

// lifecycle carries the state and store lease shared by all responders.
// Callers serialise turns; lifecycle itself is not safe for concurrent use.
type lifecycle struct {
	state State
	store *catalog.Handle
}

func newLifecycle(store catalog.Store) lifecycle {
	return lifecycle{state: StateNew, store: catalog.NewHandle(store)}
}

func (l *lifecycle) State() State { return l.state }

func (l *lifecycle) setState(s State) error {
	if s == StateNew || s == StateDone {
		return fmt.Errorf("set state %q: %w", s, ErrReservedState)
	}
	l.state = s
	return nil
}

func (l *lifecycle) finish() {
	l.state = StateDone
	l.store.Release()
}

func (l *lifecycle) Close() error {
	l.store.Release()
	l.state = StateDone
	return nil
}
