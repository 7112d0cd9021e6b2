// Package talker routes chat messages to per-user responders and evicts idle sessions.
package talker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/pricebot/core/logger"
	"github.com/m3rciful/pricebot/pricebot/responder"
)

const (
	// DefaultTTL is the idle lifetime of a session.
	DefaultTTL = 3 * time.Minute
	// DefaultSweepInterval is the period of the eviction sweep.
	DefaultSweepInterval = 30 * time.Second
)

// Action maps a message pattern onto the responder kind it starts.
type Action struct {
	Pattern *regexp.Regexp
	Kind    responder.Kind
}

// Options configures a Talker.
type Options struct {
	Deps    responder.Deps
	Actions []Action
	// Cancel and Help are matched against the lower-cased message.
	Cancel        *regexp.Regexp
	Help          *regexp.Regexp
	HelpText      string
	CancelledText string
	// TTL is a Go duration string; empty or invalid values fall back to DefaultTTL.
	TTL           string
	SweepInterval time.Duration
	// Now overrides the clock used for expiry.
	Now func() time.Time
}

type session struct {
	id     string
	userID string

	// turn serialises messages for one user and guards kind and responder.
	turn      sync.Mutex
	kind      responder.Kind
	responder responder.Responder

	// guarded by Talker.mu
	expiresAt time.Time
	closed    bool
}

// Talker is the session registry. It is safe for concurrent use.
type Talker struct {
	opts     Options
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session

	closeOnce sync.Once
	stopMu    sync.Mutex
	stop      context.CancelFunc
	done      chan struct{}
}

// New validates opts and returns an idle registry. Call Start to run the sweeper.
func New(opts Options) (*Talker, error) {
	if opts.Deps.Store == nil {
		return nil, errors.New("talker: nil store")
	}
	if opts.Cancel == nil || opts.Help == nil {
		return nil, errors.New("talker: cancel and help patterns are required")
	}
	if opts.Deps.Dialogue == nil {
		opts.Deps.Dialogue = responder.DefaultDialogue()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	interval := opts.SweepInterval
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Talker{
		opts:     opts,
		ttl:      parseTTL(opts.TTL),
		interval: interval,
		now:      now,
		sessions: make(map[string]*session),
	}, nil
}

func parseTTL(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTTL
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		attrs := []slog.Attr{
			slog.String("status", "skip"),
			slog.String("ttl", raw),
			slog.Duration("fallback", DefaultTTL),
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", err.Error()))
		}
		logger.Warn(context.Background(), "talk", "session.ttl", attrs...)
		return DefaultTTL
	}
	return d
}

// TTL reports the effective session lifetime.
func (t *Talker) TTL() time.Duration { return t.ttl }

// Dialogue handles one message from userID with the configured TTL.
// ok is false when nothing should be sent back.
func (t *Talker) Dialogue(ctx context.Context, userID, text string) (reply string, ok bool, err error) {
	return t.DialogueFor(ctx, userID, text, t.ttl)
}

// DialogueFor is Dialogue with a caller-chosen session lifetime.
// A non-positive ttl is logged and replaced by the configured TTL.
func (t *Talker) DialogueFor(ctx context.Context, userID, text string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		logger.Warn(ctx, "talk", "session.ttl",
			slog.String("status", "skip"),
			slog.Duration("ttl", ttl),
			slog.Duration("fallback", t.ttl),
		)
		ttl = t.ttl
	}
	for {
		s := t.ensure(ctx, userID, ttl)
		s.turn.Lock()
		t.mu.Lock()
		closed := s.closed
		t.mu.Unlock()
		if closed {
			// evicted between lookup and lock
			s.turn.Unlock()
			continue
		}
		reply, ok, err := t.handle(logger.WithSessionID(ctx, s.id), s, text)
		s.turn.Unlock()
		return reply, ok, err
	}
}

// ensure returns the live session for userID and pushes its expiry to
// now+ttl. A session already past its expiry is torn down and replaced.
func (t *Talker) ensure(ctx context.Context, userID string, ttl time.Duration) *session {
	now := t.now()
	t.mu.Lock()
	s, ok := t.sessions[userID]
	var stale *session
	if ok && s.expiresAt.Before(now) {
		s.closed = true
		delete(t.sessions, userID)
		stale, ok = s, false
	}
	if ok {
		s.expiresAt = now.Add(ttl)
		t.mu.Unlock()
		return s
	}
	s = &session{
		id:        uuid.NewString(),
		userID:    userID,
		kind:      responder.KindLookup,
		expiresAt: now.Add(ttl),
	}
	t.sessions[userID] = s
	t.mu.Unlock()

	if stale != nil {
		stale.turn.Lock()
		t.closeResponder(ctx, stale)
		stale.turn.Unlock()
		logger.Info(logger.WithSessionID(ctx, stale.id), "talk", "session.evict",
			slog.String("status", "ok"),
			slog.String("user", userID),
			slog.String("cause", "expired"),
		)
	}
	logger.Debug(logger.WithSessionID(ctx, s.id), "talk", "session.create",
		slog.String("status", "ok"),
		slog.String("user", userID),
	)
	return s
}

// handle runs one turn with s.turn held.
func (t *Talker) handle(ctx context.Context, s *session, text string) (string, bool, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	t.classify(s, lower)

	switch {
	case t.opts.Cancel.MatchString(lower):
		reply, ok := t.cancel(ctx, s)
		return reply, ok, nil
	case t.opts.Help.MatchString(lower):
		return t.help(ctx, s), true, nil
	}

	if s.responder == nil {
		r, err := responder.NewResponder(s.kind, t.opts.Deps)
		if err != nil {
			t.teardown(ctx, s, "error")
			return "", false, fmt.Errorf("start %s responder: %w", s.kind, err)
		}
		s.responder = r
		logger.Debug(ctx, "talk", "responder.start",
			slog.String("status", "ok"),
			slog.String("kind", s.kind.String()),
		)
	}

	reply, err := s.responder.Respond(ctx, strings.TrimSpace(text))
	if err != nil {
		logger.Error(ctx, "talk", "responder.respond",
			slog.String("status", "fail"),
			slog.String("kind", s.kind.String()),
			slog.String("err", err.Error()),
		)
		t.teardown(ctx, s, "error")
		return "", false, fmt.Errorf("%s turn: %w", s.kind, err)
	}
	if s.responder.State() == responder.StateDone {
		t.teardown(ctx, s, "done")
	}
	return reply, true, nil
}

// Cancel abandons userID's conversation. ok is false when nothing was in
// progress.
func (t *Talker) Cancel(ctx context.Context, userID string) (reply string, ok bool) {
	s := t.current(userID)
	if s == nil {
		return "", false
	}
	s.turn.Lock()
	defer s.turn.Unlock()
	return t.cancel(logger.WithSessionID(ctx, s.id), s)
}

// Help ends userID's conversation, if any, and returns the help text.
func (t *Talker) Help(ctx context.Context, userID string) string {
	if s := t.current(userID); s != nil {
		s.turn.Lock()
		defer s.turn.Unlock()
		t.teardown(logger.WithSessionID(ctx, s.id), s, "help")
	}
	return t.opts.HelpText
}

func (t *Talker) current(userID string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[userID]
}

func (t *Talker) cancel(ctx context.Context, s *session) (string, bool) {
	had := s.responder != nil
	t.teardown(ctx, s, "cancel")
	if !had {
		return "", false
	}
	return t.opts.CancelledText, true
}

func (t *Talker) help(ctx context.Context, s *session) string {
	t.teardown(ctx, s, "help")
	return t.opts.HelpText
}

func (t *Talker) classify(s *session, lower string) {
	for _, a := range t.opts.Actions {
		if a.Pattern.MatchString(lower) {
			s.kind = a.Kind
			return
		}
	}
}

// teardown removes s and closes its responder. Callers hold s.turn.
func (t *Talker) teardown(ctx context.Context, s *session, reason string) {
	t.mu.Lock()
	if cur, ok := t.sessions[s.userID]; ok && cur == s {
		delete(t.sessions, s.userID)
	}
	s.closed = true
	t.mu.Unlock()

	t.closeResponder(ctx, s)
	logger.Debug(ctx, "talk", "session.teardown",
		slog.String("status", "ok"),
		slog.String("cause", reason),
	)
}

func (t *Talker) closeResponder(ctx context.Context, s *session) {
	if s.responder == nil {
		return
	}
	if err := s.responder.Close(); err != nil {
		logger.Warn(ctx, "talk", "responder.close",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
	s.responder = nil
}

// Len reports the number of live sessions.
func (t *Talker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Sweep evicts sessions whose expiry has passed and returns how many it removed.
func (t *Talker) Sweep(ctx context.Context) int {
	now := t.now()
	t.mu.Lock()
	var expired []*session
	for id, s := range t.sessions {
		if s.expiresAt.Before(now) {
			s.closed = true
			delete(t.sessions, id)
			expired = append(expired, s)
		}
	}
	t.mu.Unlock()

	for _, s := range expired {
		s.turn.Lock()
		t.closeResponder(ctx, s)
		s.turn.Unlock()
		logger.Info(logger.WithSessionID(ctx, s.id), "talk", "session.evict",
			slog.String("status", "ok"),
			slog.String("user", s.userID),
		)
	}
	return len(expired)
}

// Run sweeps on a fixed phase until ctx is done. Each wait is shortened by the
// time already spent since the origin so slow sweeps do not shift the schedule.
func (t *Talker) Run(ctx context.Context) error {
	origin := time.Now()
	timer := time.NewTimer(t.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		start := time.Now()
		if n := t.Sweep(ctx); n > 0 {
			logger.Debug(ctx, "talk", "session.sweep",
				slog.String("status", "ok"),
				slog.Int("count", n),
				slog.Duration("duration", logger.Took(start)),
			)
		}
		elapsed := time.Since(origin)
		timer.Reset(t.interval - elapsed%t.interval)
	}
}

// Start runs the sweeper in the background until Close.
func (t *Talker) Start(ctx context.Context) {
	t.stopMu.Lock()
	defer t.stopMu.Unlock()
	if t.stop != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	t.stop = cancel
	t.done = make(chan struct{})
	go func() {
		defer close(t.done)
		_ = t.Run(ctx)
	}()
}

// Close stops the sweeper and releases every remaining responder.
func (t *Talker) Close() error {
	t.closeOnce.Do(func() {
		t.stopMu.Lock()
		if t.stop != nil {
			t.stop()
			<-t.done
		}
		t.stopMu.Unlock()

		t.mu.Lock()
		remaining := make([]*session, 0, len(t.sessions))
		for id, s := range t.sessions {
			s.closed = true
			delete(t.sessions, id)
			remaining = append(remaining, s)
		}
		t.mu.Unlock()

		for _, s := range remaining {
			s.turn.Lock()
			t.closeResponder(context.Background(), s)
			s.turn.Unlock()
		}
		logger.Info(context.Background(), "talk", "session.shutdown",
			slog.String("status", "ok"),
			slog.Int("count", len(remaining)),
		)
	})
	return nil
}
