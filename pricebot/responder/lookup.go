package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/looplab/fsm"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/pricebot/catalog"
	"github.com/m3rciful/pricebot/pricebot/numeric"
)

// StateGuess waits for the user to pick a candidate by number.
const StateGuess State = "guess"

const (
	eventAsk    = "ask"
	eventAnswer = "answer"

	fullWidthSpace = "　"
)

// ProductResponder answers a price lookup. An unknown name falls back to a
// prefix search; several candidates are offered as a numbered list.
type ProductResponder struct {
	lifecycle
	d       *Dialogue
	machine *fsm.FSM
	guesses map[int]string
}

var _ Responder = (*ProductResponder)(nil)

// NewProductResponder builds a lookup responder.
func NewProductResponder(deps Deps) *ProductResponder {
	d := deps.Dialogue
	if d == nil {
		d = DefaultDialogue()
	}
	p := &ProductResponder{
		lifecycle: newLifecycle(deps.Store),
		d:         d,
	}
	p.machine = fsm.NewFSM(
		string(StateNew),
		fsm.Events{
			{Name: eventAsk, Src: []string{string(StateNew)}, Dst: string(StateGuess)},
			{Name: eventAnswer, Src: []string{string(StateNew), string(StateGuess)}, Dst: string(StateDone)},
		},
		fsm.Callbacks{
			"enter_" + string(StateGuess): func(ctx context.Context, _ *fsm.Event) {
				if err := p.setState(StateGuess); err != nil {
					logger.Error(ctx, "talk", "responder.state",
						slog.String("status", "fail"),
						slog.String("state", string(StateGuess)),
						slog.String("err", err.Error()),
					)
				}
			},
			"enter_" + string(StateDone): func(context.Context, *fsm.Event) {
				p.finish()
			},
		},
	)
	return p
}

// Respond answers one turn. An empty answer becomes the not-found reply.
func (p *ProductResponder) Respond(ctx context.Context, text string) (string, error) {
	if p.State() == StateDone {
		return "", ErrDone
	}
	reply, err := p.respond(ctx, text)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = p.d.Replies.NotFound
	}
	return reply, nil
}

func (p *ProductResponder) respond(ctx context.Context, text string) (string, error) {
	if p.machine.Is(string(StateGuess)) {
		return p.pick(ctx, text)
	}

	command := strings.ToLower(text)
	switch {
	case p.d.ListPattern.MatchString(command):
		names, err := p.sortedNames(ctx)
		if err != nil {
			return "", err
		}
		return strings.Join(names, "\n"), p.fire(ctx, eventAnswer)
	case p.d.BrowsePattern.MatchString(command):
		names, err := p.sortedNames(ctx)
		if err != nil {
			return "", err
		}
		if len(names) == 0 {
			return "", p.fire(ctx, eventAnswer)
		}
		return p.offer(ctx, names)
	}

	reply, err := p.retrieve(ctx, text)
	if err != nil {
		return "", err
	}
	if reply != "" {
		return reply, p.fire(ctx, eventAnswer)
	}
	return p.guessProduct(ctx, text)
}

// pick resolves a numbered answer against the guess table.
func (p *ProductResponder) pick(ctx context.Context, text string) (string, error) {
	n, ok := numeric.Parse(text, numeric.ModeBoth)
	name, found := "", false
	if ok && n.IsInt {
		name, found = p.guesses[int(n.Int)]
	}
	if !found {
		logger.Debug(ctx, "talk", "lookup.pick", slog.String("status", "skip"))
		return p.d.Replies.LookupEnded, p.fire(ctx, eventAnswer)
	}
	reply, err := p.retrieve(ctx, name)
	if err != nil {
		return "", err
	}
	return reply, p.fire(ctx, eventAnswer)
}

// guessProduct widens the search one rune at a time until some name matches.
func (p *ProductResponder) guessProduct(ctx context.Context, text string) (string, error) {
	for prefix := range numeric.Prefixes(text) {
		names, err := p.store.SearchNames(ctx, prefix)
		if err != nil {
			return "", fmt.Errorf("search names by %q: %w", prefix, err)
		}
		names = dedupe(names)
		switch len(names) {
		case 0:
			continue
		case 1:
			logger.Debug(ctx, "talk", "lookup.guess",
				slog.String("status", "ok"),
				slog.String("product", names[0]),
			)
			reply, err := p.retrieve(ctx, names[0])
			if err != nil {
				return "", err
			}
			return reply, p.fire(ctx, eventAnswer)
		default:
			logger.Debug(ctx, "talk", "lookup.guess",
				slog.String("status", "ok"),
				slog.Int("candidates", len(names)),
			)
			return p.offer(ctx, names)
		}
	}
	return "", p.fire(ctx, eventAnswer)
}

// offer numbers names from 1, stores them as the guess table and waits for a pick.
func (p *ProductResponder) offer(ctx context.Context, names []string) (string, error) {
	p.guesses = make(map[int]string, len(names))
	var b strings.Builder
	b.WriteString(p.d.Replies.GuessPrompt)
	for i, name := range names {
		p.guesses[i+1] = name
		fmt.Fprintf(&b, "\n%d: %s", i+1, name)
	}
	if err := p.fire(ctx, eventAsk); err != nil {
		return "", err
	}
	return b.String(), nil
}

// retrieve renders up to catalog.MaxResults rows for name, cheapest per unit first.
func (p *ProductResponder) retrieve(ctx context.Context, name string) (string, error) {
	rows, err := p.store.FindByName(ctx, name, catalog.MaxResults)
	if err != nil {
		return "", fmt.Errorf("retrieve %q: %w", name, err)
	}
	return FormatProducts(rows), nil
}

func (p *ProductResponder) sortedNames(ctx context.Context) ([]string, error) {
	names, err := p.store.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list names: %w", err)
	}
	collate.New(language.Japanese).SortStrings(names)
	return names, nil
}

func (p *ProductResponder) fire(ctx context.Context, event string) error {
	if err := p.machine.Event(ctx, event); err != nil {
		return fmt.Errorf("lookup %s: %w", event, err)
	}
	return nil
}

// FormatProducts renders rows under a header with the product name.
// Amounts and prices are centred in their columns with full-width spaces.
func FormatProducts(rows []catalog.Product) string {
	if len(rows) == 0 {
		return ""
	}
	amounts := make([]string, len(rows))
	prices := make([]string, len(rows))
	amountWidth, priceWidth := 0, 0
	for i, r := range rows {
		amounts[i] = r.Amount.String()
		prices[i] = numeric.IntNumber(r.Price).String()
		amountWidth = max(amountWidth, utf8.RuneCountInString(amounts[i]))
		priceWidth = max(priceWidth, utf8.RuneCountInString(prices[i]))
	}

	var b strings.Builder
	b.WriteString(rows[0].Name)
	for i, r := range rows {
		fmt.Fprintf(&b, "\n%s, %s円: %s %s",
			center(amounts[i], amountWidth),
			center(prices[i], priceWidth),
			r.Shop, r.Branch,
		)
	}
	return strings.TrimSpace(b.String())
}

func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(fullWidthSpace, left) + s + strings.Repeat(fullWidthSpace, pad-left)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
