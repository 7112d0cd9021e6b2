package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	keyLogger ctxKey = iota
	keyRID
	keyUpdateID
	keyUserID
	keyChatID
	keyHandler
	keySession
)

func value[T comparable](ctx context.Context, key ctxKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	v, _ := ctx.Value(key).(T)
	return v
}

func with(ctx context.Context, key ctxKey, v any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

// WithLogger stores log in ctx. A nil log leaves ctx unchanged.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, keyLogger, log)
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := value[*slog.Logger](ctx, keyLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches the request correlation id.
func WithRID(ctx context.Context, rid string) context.Context { return with(ctx, keyRID, rid) }

// RIDFrom returns the correlation id, if any.
func RIDFrom(ctx context.Context) string { return value[string](ctx, keyRID) }

// WithUpdateMeta attaches the Telegram update, user and chat ids.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = with(ctx, keyUpdateID, updateID)
	ctx = with(ctx, keyUserID, userID)
	return with(ctx, keyChatID, chatID)
}

// UpdateIDFrom returns the Telegram update id, if any.
func UpdateIDFrom(ctx context.Context) int { return value[int](ctx, keyUpdateID) }

// UserIDFrom returns the Telegram user id, if any.
func UserIDFrom(ctx context.Context) int64 { return value[int64](ctx, keyUserID) }

// ChatIDFrom returns the Telegram chat id, if any.
func ChatIDFrom(ctx context.Context) int64 { return value[int64](ctx, keyChatID) }

// WithHandler names the chat handler serving the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" && ctx != nil {
		return ctx
	}
	return with(ctx, keyHandler, handler)
}

// HandlerFrom returns the handler name, if any.
func HandlerFrom(ctx context.Context) string { return value[string](ctx, keyHandler) }

// WithSessionID attaches the dialogue session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return with(ctx, keySession, id)
}

// SessionIDFrom returns the dialogue session id, if any.
func SessionIDFrom(ctx context.Context) string { return value[string](ctx, keySession) }

// contextFields copies the ids carried by ctx into fields without
// overriding explicit attributes.
func contextFields(ctx context.Context, fields map[string]any) {
	set := func(k string, v any, present bool) {
		if _, ok := fields[k]; !ok && present {
			fields[k] = v
		}
	}
	rid := RIDFrom(ctx)
	set("rid", rid, rid != "")
	uid := UserIDFrom(ctx)
	set("user_id", uid, uid != 0)
	upd := UpdateIDFrom(ctx)
	set("update_id", upd, upd != 0)
	cid := ChatIDFrom(ctx)
	set("chat_id", cid, cid != 0)
	sid := SessionIDFrom(ctx)
	set("session_id", sid, sid != "")
	h := HandlerFrom(ctx)
	set("handler", h, h != "")
}
