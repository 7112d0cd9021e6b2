package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/pricebot/catalog"
	"github.com/m3rciful/pricebot/pricebot/numeric"
)

const (
	confirmOK = "ok"
	confirmNo = "no"
)

type slotState uint8

const (
	slotUnset slotState = iota
	slotSkipped
	slotSet
)

type slot struct {
	state    slotState
	text     string
	num      numeric.Number
	decimals int
}

func (s slot) display() any {
	switch {
	case s.state != slotSet:
		return ""
	case s.text != "":
		return s.text
	default:
		return s.num
	}
}

// AddOption pre-fills the add-product form.
type AddOption func(*AddResponder)

// WithPreset fills field as if the user had typed text. Invalid input leaves the slot unset.
func WithPreset(field Field, text string) AddOption {
	return func(a *AddResponder) { a.assign(field, text) }
}

// WithSkipped marks field as intentionally empty so the form never asks for it.
// The confirm slot cannot be skipped.
func WithSkipped(field Field) AddOption {
	return func(a *AddResponder) {
		if field == FieldConfirm || !knownField(field) {
			return
		}
		a.slots[field] = slot{state: slotSkipped}
	}
}

// AddResponder collects a product record one field per turn, asks for
// confirmation and registers it.
type AddResponder struct {
	lifecycle
	d     *Dialogue
	order []Field
	slots map[Field]slot
}

var _ Responder = (*AddResponder)(nil)

// NewAddResponder builds an empty form. deps.Dialogue must pass Validate.
func NewAddResponder(deps Deps, opts ...AddOption) (*AddResponder, error) {
	d := deps.Dialogue
	if d == nil {
		d = DefaultDialogue()
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("add responder: %w", err)
	}
	a := &AddResponder{
		lifecycle: newLifecycle(deps.Store),
		d:         d,
		slots:     make(map[Field]slot, len(d.Prompts)),
	}
	for _, p := range d.Prompts {
		a.order = append(a.order, p.Field)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Respond advances the form by one turn.
func (a *AddResponder) Respond(ctx context.Context, text string) (string, error) {
	if a.State() == StateDone {
		return "", ErrDone
	}
	previous := a.State()
	if err := a.advance(); err != nil {
		return "", err
	}
	if previous == StateNew {
		return a.d.prompt(Field(a.State())), nil
	}
	if a.State() == StateHasRefill {
		return a.resolveConflict(ctx, text)
	}

	a.assign(Field(a.State()), text)
	if err := a.advance(); err != nil {
		return "", err
	}
	if c := a.slots[FieldConfirm]; c.state == slotSet {
		return a.commit(ctx)
	}
	if a.State() == State(FieldConfirm) {
		return a.confirmPrompt(), nil
	}
	return a.d.prompt(Field(a.State())), nil
}

// Value returns the display value held for field and whether it is set.
func (a *AddResponder) Value(field Field) (any, bool) {
	s := a.slots[field]
	return s.display(), s.state == slotSet
}

// advance moves to the first unset slot; the first turn always starts at name.
func (a *AddResponder) advance() error {
	if a.State() == StateNew {
		return a.setState(State(FieldName))
	}
	for _, f := range a.order {
		if a.slots[f].state == slotUnset {
			return a.setState(State(f))
		}
	}
	return nil
}

func (a *AddResponder) assign(field Field, text string) {
	switch field {
	case FieldName, FieldShop:
		if text != "" {
			a.slots[field] = slot{state: slotSet, text: text}
		}
	case FieldAmount:
		if n, ok := numeric.Parse(text, numeric.ModeBoth); ok {
			a.slots[field] = slot{state: slotSet, num: n, decimals: numeric.Decimals(text)}
		}
	case FieldPrice:
		if n, ok := numeric.Parse(text, numeric.ModeInt); ok && n.Value() >= 0 {
			a.slots[field] = slot{state: slotSet, num: n}
		}
	case FieldBranch:
		branch := stripBranchSuffix(text)
		if branch != "" {
			a.slots[field] = slot{state: slotSet, text: branch}
		}
	case FieldConfirm:
		answer := strings.ToLower(text)
		switch {
		case answer == "":
		case containsFold(a.d.YesWords, answer):
			a.slots[field] = slot{state: slotSet, text: confirmOK}
		case containsFold(a.d.NoWords, answer):
			a.slots[field] = slot{state: slotSet, text: confirmNo}
		}
	}
}

func stripBranchSuffix(text string) string {
	if s, ok := strings.CutSuffix(text, "支店"); ok {
		return s
	}
	if s, ok := strings.CutSuffix(text, "店"); ok {
		return s
	}
	return text
}

func (a *AddResponder) confirmPrompt() string {
	return fmt.Sprintf(a.d.prompt(FieldConfirm),
		a.slots[FieldName].display(),
		a.slots[FieldAmount].display(),
		a.slots[FieldPrice].display(),
		a.slots[FieldShop].display(),
		a.slots[FieldBranch].display(),
	)
}

func (a *AddResponder) commit(ctx context.Context) (string, error) {
	if a.slots[FieldConfirm].text != confirmOK {
		a.finish()
		logger.Info(ctx, "talk", "product.register", slog.String("status", "cancelled"))
		return a.d.Replies.RegisterCancelled, nil
	}

	name := a.slots[FieldName]
	if a.State() != StateHasRefill {
		name.text = catalog.CanonicalName(name.text)
		a.slots[FieldName] = name
		if !catalog.HasVariantSuffix(name.text) {
			conflict, err := a.hasSibling(ctx, name.text)
			if err != nil {
				return "", err
			}
			if conflict {
				if err := a.setState(StateHasRefill); err != nil {
					return "", err
				}
				logger.Info(ctx, "talk", "product.register",
					slog.String("status", "conflict"),
					slog.String("product", name.text),
				)
				return fmt.Sprintf(a.d.ConflictPrompt, name.text), nil
			}
		}
	}

	p := a.product()
	if err := a.store.Upsert(ctx, p); err != nil {
		return "", fmt.Errorf("register product %q: %w", p.Name, err)
	}
	a.finish()
	return a.d.Replies.Registered, nil
}

func (a *AddResponder) hasSibling(ctx context.Context, name string) (bool, error) {
	for _, sibling := range catalog.Siblings(name) {
		ok, err := a.store.Exists(ctx, sibling)
		if err != nil {
			return false, fmt.Errorf("check sibling %q: %w", sibling, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (a *AddResponder) resolveConflict(ctx context.Context, text string) (string, error) {
	name := a.slots[FieldName]
	switch strings.TrimSpace(text) {
	case "0":
		name.text += catalog.SuffixBody
	case "1":
		name.text += catalog.SuffixRefill
	default:
		return fmt.Sprintf(a.d.ConflictPrompt, name.text), nil
	}
	a.slots[FieldName] = name
	return a.commit(ctx)
}

func (a *AddResponder) product() catalog.Product {
	amount := a.slots[FieldAmount]
	return catalog.Product{
		Name:           a.slots[FieldName].text,
		Amount:         amount.num,
		AmountDecimals: amount.decimals,
		Price:          a.slots[FieldPrice].num.Int,
		Shop:           a.slots[FieldShop].text,
		Branch:         a.slots[FieldBranch].text,
	}
}
