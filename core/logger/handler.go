package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// defaultKeyOrder lists the keys printed first, in this order. Other keys
// follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "update_id", "user_id", "chat_id", "session_id", "handler",
	"duration_ms", "err_code", "err",
}

var statusAliases = map[string]string{
	"ok": "ok", "success": "ok", "done": "ok",
	"fail": "fail", "failed": "fail", "error": "fail",
	"skip": "skip", "skipped": "skip",
	"retry": "retry", "timeout": "timeout",
}

type handlerOptions struct {
	level slog.Leveler
	out   *sink
	json  bool
	order []string
}

// handler renders flat records as JSON objects or key=value lines.
type handler struct {
	opts   *handlerOptions
	attrs  []slog.Attr
	prefix string
}

func newHandler(opts handlerOptions) *handler {
	if opts.level == nil {
		opts.level = slog.LevelInfo
	}
	if len(opts.order) == 0 {
		opts.order = defaultKeyOrder
	}
	return &handler{opts: &opts}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, h.scoped(a))
	}
	return &c
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func (h *handler) scoped(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	return slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.opts.out == nil {
		return fmt.Errorf("logger: output not initialized")
	}
	fields := map[string]any{
		"ts":    r.Time.UTC().Truncate(time.Millisecond).Format(tsLayout),
		"level": r.Level.String(),
	}
	for _, a := range h.attrs {
		put(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		put(fields, "", h.scoped(a))
		return true
	})
	contextFields(ctx, fields)

	if rid, ok := fields["rid"].(string); ok {
		fields["rid"] = CompactRID(rid)
	}
	if s, ok := fields["status"].(string); ok {
		if norm, known := statusAliases[strings.ToLower(s)]; known {
			fields["status"] = norm
		}
	}
	if ev, _ := fields["event"].(string); ev == "" {
		fields["event"] = cmpOr(r.Message, "unknown")
	}
	if c, _ := fields["component"].(string); c == "" {
		fields["component"] = "app"
	}

	var line []byte
	if h.opts.json {
		var err error
		if line, err = encodeJSON(fields, h.opts.order); err != nil {
			return err
		}
	} else {
		line = encodeKV(fields, h.opts.order)
	}
	return h.opts.out.Write(append(line, '\n'))
}

// put flattens a into fields, joining group keys with dots. Durations are
// stored in milliseconds under a key ending in _ms. Empty values are dropped.
func put(fields map[string]any, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			put(fields, key, child)
		}
		return
	}
	if key == "" {
		return
	}
	var val any
	switch v.Kind() {
	case slog.KindString:
		val = strings.TrimSpace(v.String())
	case slog.KindInt64:
		val = v.Int64()
	case slog.KindUint64:
		val = v.Uint64()
	case slog.KindFloat64:
		val = v.Float64()
	case slog.KindBool:
		val = v.Bool()
	case slog.KindDuration:
		key, val = msKey(key), RoundMS(v.Duration()).Milliseconds()
	case slog.KindTime:
		val = v.Time().UTC().Format(time.RFC3339Nano)
	default:
		switch x := v.Any().(type) {
		case nil:
			return
		case time.Duration:
			key, val = msKey(key), RoundMS(x).Milliseconds()
		case error:
			val = x.Error()
		case fmt.Stringer:
			val = x.String()
		default:
			val = x
		}
	}
	if s, ok := val.(string); ok && s == "" {
		delete(fields, key)
		return
	}
	fields[key] = val
}

func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func cmpOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func sortedKeys(fields map[string]any, order []string) []string {
	keys := make([]string, 0, len(fields))
	for _, k := range order {
		if _, ok := fields[k]; ok {
			keys = append(keys, k)
		}
	}
	head := len(keys)
	for k := range fields {
		if !slices.Contains(keys[:head], k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[head:])
	return keys
}

func encodeJSON(fields map[string]any, order []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range sortedKeys(fields, order) {
		v, err := json.Marshal(fields[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func encodeKV(fields map[string]any, order []string) []byte {
	var b bytes.Buffer
	for i, k := range sortedKeys(fields, order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		s := fmt.Sprint(fields[k])
		if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
			s = strconv.Quote(s)
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(s)
	}
	return b.Bytes()
}
