package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func render(t *testing.T, json bool, lvl slog.Level, fn func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	s := newSink([]io.Writer{buf}, nil, time.Hour)
	fn(slog.New(newHandler(handlerOptions{level: lvl, out: s, json: json})))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return strings.TrimSpace(buf.String())
}

func TestKVKeyOrder(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)
	line := render(t, false, slog.LevelInfo, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "app"), slog.LevelInfo, "test.event",
			slog.String("cause", "unit"),
			slog.String("status", "success"),
		)
	})
	tokens := strings.Split(line, " ")
	want := []string{"ts=", "level=INFO", "component=app", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "cause=unit"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %q", tokens)
	}
	for i, prefix := range want {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, want prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestJSONOrderAndDurations(t *testing.T) {
	ctx := WithRID(Background(), "12:34:56")
	line := render(t, true, slog.LevelInfo, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "catalog"), slog.LevelError, "store.find",
			slog.String("status", "failed"),
			slog.Duration("duration", 1499*time.Microsecond),
			slog.String("err", "boom"),
		)
	})
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"catalog"`, `"event":"store.find"`, `"status":"fail"`, `"rid":"` + CompactRID("12:34:56") + `"`, `"duration_ms":1`, `"err":"boom"`}
	pos := -1
	for _, p := range prefixes {
		idx := strings.Index(line, p)
		if idx <= pos {
			t.Fatalf("%s missing or out of order in %s", p, line)
		}
		pos = idx
	}
}

func TestSessionIDAndEmptyValues(t *testing.T) {
	ctx := WithSessionID(WithUpdateMeta(Background(), 5, 77, 77), "sess-1")
	line := render(t, false, slog.LevelDebug, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelDebug, "", slog.String("blank", "  "))
	})
	if !strings.Contains(line, "component=app") || !strings.Contains(line, "event=unknown") {
		t.Fatalf("defaults missing: %s", line)
	}
	if strings.Contains(line, "blank=") {
		t.Fatalf("blank value kept: %s", line)
	}
	u, s := strings.Index(line, "user_id=77"), strings.Index(line, "session_id=sess-1")
	if u == -1 || s < u {
		t.Fatalf("want user_id before session_id: %s", line)
	}
}

func TestLevelFilterAndGroups(t *testing.T) {
	line := render(t, false, slog.LevelInfo, func(l *slog.Logger) {
		l.Debug("hidden")
		l.WithGroup("db").Info("pool", slog.Int("open", 3), slog.Group("wait", slog.Int("count", 1)))
	})
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record written: %s", line)
	}
	if !strings.Contains(line, "db.open=3") || !strings.Contains(line, "db.wait.count=1") {
		t.Fatalf("group keys missing: %s", line)
	}
}

func TestKVQuotesValues(t *testing.T) {
	line := render(t, false, slog.LevelInfo, func(l *slog.Logger) {
		l.Info("q", slog.String("text", `a b="c"`))
	})
	if !strings.Contains(line, `text="a b=\"c\""`) {
		t.Fatalf("value not quoted: %s", line)
	}
}

func TestHelpersAreSilentBeforeInit(t *testing.T) {
	if L != nil {
		t.Skip("global logger already initialised")
	}
	Info(context.Background(), "app", "noop")
	if Component("x") != nil {
		t.Fatal("Component should be nil before InitLogger")
	}
}

func TestSampler(t *testing.T) {
	var s sampler
	s.set(1, 3)
	got := 0
	for i := 0; i < 9; i++ {
		if s.allow() {
			got++
		}
	}
	if got != 3 {
		t.Fatalf("allowed %d of 9, want 3", got)
	}
	s.set(0, 0)
	if !s.allow() {
		t.Fatal("disabled sampler should allow")
	}
	if num, den := parseRatio("2/5"); num != 2 || den != 5 {
		t.Fatalf("parseRatio(2/5) = %d/%d", num, den)
	}
	if num, den := parseRatio("10"); num != 1 || den != 10 {
		t.Fatalf("parseRatio(10) = %d/%d", num, den)
	}
	if num, den := sampleRatio("junk"); num != 1 || den != 50 {
		t.Fatalf("sampleRatio(junk) = %d/%d", num, den)
	}
}

func TestFields(t *testing.T) {
	if got := CompactRID("35:36:1"); got != "z.10.1" {
		t.Fatalf("CompactRID = %q", got)
	}
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID passthrough = %q", got)
	}
	if got := BuildRID(1, -2, 3); got != "1:-2:3" {
		t.Fatalf("BuildRID = %q", got)
	}
	if got := SanitizeLimit("a\x00b\u200bcdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got, cut := SummarizeStrings([]string{"a", "b", "c"}, 2); got != "a, b" || !cut {
		t.Fatalf("SummarizeStrings = %q, %v", got, cut)
	}
	if RoundMS(-time.Second) != 0 || RoundMS(1600*time.Microsecond) != 2*time.Millisecond {
		t.Fatal("RoundMS")
	}
}
