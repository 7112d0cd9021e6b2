// Package logger is the process-wide structured logger. Records are flat:
// every line carries component and event keys plus the Telegram ids found
// in the context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/m3rciful/pricebot/core/buildinfo"
	coreconfig "github.com/m3rciful/pricebot/core/config"
)

var (
	mu    sync.Mutex
	out   *sink
	level slog.LevelVar

	debugSample sampler
	trace       bool

	// L is the base logger. It stays nil until InitLogger succeeds.
	L *slog.Logger

	// DB logs database connection events.
	DB *slog.Logger
	// MIG logs schema migrations.
	MIG *slog.Logger
)

// InitLogger configures the global logger from cfg. Later calls are no-ops.
func InitLogger(cfg *coreconfig.Config) error {
	mu.Lock()
	defer mu.Unlock()
	if L != nil {
		return nil
	}
	var lc coreconfig.LoggingConfig
	if cfg != nil {
		lc = cfg.Logging
	}

	outputs := []io.Writer{os.Stdout}
	var closers []io.Closer
	if lc.Dir != "" && lc.BotFile != "" {
		if err := os.MkdirAll(lc.Dir, 0o755); err != nil {
			return fmt.Errorf("logger: create %s: %w", lc.Dir, err)
		}
		f, err := os.OpenFile(filepath.Join(lc.Dir, lc.BotFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("logger: open log file: %w", err)
		}
		outputs = append(outputs, f)
		closers = append(closers, f)
	}

	level.Set(parseLevel(lc.Level))
	debugSample.set(sampleRatio(lc.DebugSample))
	trace = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))
	out = newSink(outputs, closers, 0)

	L = slog.New(newHandler(handlerOptions{
		level: &level,
		out:   out,
		json:  useJSON(lc),
		order: keyOrder(lc.KeysOrder),
	}))
	slog.SetDefault(L)
	DB = Component("db")
	MIG = Component("db.migrate")

	Info(context.Background(), "app", "startup",
		slog.String("version", buildinfo.Version),
		slog.String("go_version", runtime.Version()),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", profile(lc)),
	)
	return nil
}

// Shutdown flushes pending lines and closes the log file. It is safe to call
// more than once.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return nil
	}
	return out.Close()
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// useJSON picks the output format. Without an explicit format the debug and
// dev profiles print key=value lines.
func useJSON(lc coreconfig.LoggingConfig) bool {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return false
	case "json":
		return true
	}
	switch profile(lc) {
	case "debug", "dev":
		return false
	}
	return true
}

func keyOrder(raw string) []string {
	var order []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" && k != "default" {
			order = append(order, k)
		}
	}
	return order
}

func profile(lc coreconfig.LoggingConfig) string {
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		return p
	}
	return "prod"
}

// sampleRatio defaults to 1/50. "0" disables sampling.
func sampleRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, 50
	}
	if raw == "0" || raw == "off" {
		return 0, 0
	}
	num, den := parseRatio(raw)
	if num <= 0 || den <= 0 {
		return 1, 50
	}
	return num, den
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// ShouldSampleDebug reports whether a high-volume debug record should be
// written. TRACE=1 lets every record through.
func ShouldSampleDebug() bool {
	return trace || debugSample.allow()
}

// Background returns context.Background().
func Background() context.Context { return context.Background() }

// Component returns L scoped to name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes an event through log, or through the context logger when
// log is nil. Nothing is written before InitLogger.
func LogEvent(ctx context.Context, log *slog.Logger, lvl slog.Level, event string, attrs ...slog.Attr) {
	if log == nil {
		log = FromContext(ctx)
	}
	if log == nil {
		return
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	log.LogAttrs(ctx, lvl, "", attrs...)
}

func emit(ctx context.Context, component string, lvl slog.Level, event string, attrs []slog.Attr) {
	log := FromContext(ctx)
	if log == nil {
		return
	}
	if component != "" {
		log = log.With("component", component)
	}
	LogEvent(ctx, log, lvl, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelDebug, event, attrs)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelInfo, event, attrs)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelWarn, event, attrs)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	emit(ctx, component, slog.LevelError, event, attrs)
}
