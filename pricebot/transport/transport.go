// Package transport connects Telegram updates to the session registry.
package transport

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/m3rciful/pricebot/core/logger"
	tg "github.com/m3rciful/pricebot/core/telegram"
	tghelpers "github.com/m3rciful/pricebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Talker is the part of the session registry the chat transport drives.
type Talker interface {
	Dialogue(ctx context.Context, userID, text string) (string, bool, error)
	Cancel(ctx context.Context, userID string) (string, bool)
	Help(ctx context.Context, userID string) string
}

// Options holds transport level texts.
type Options struct {
	// ErrorText is sent when a turn fails. The failed session is already gone.
	ErrorText string
}

// RegisterCommands adds /start, /help and /cancel to reg.
func RegisterCommands(reg *tg.Registry, tk Talker) {
	help := func(c tele.Context) error {
		return tghelpers.SendText(c, tk.Help(tghelpers.BuildContext(c), userKey(c)))
	}
	reg.RegisterCommand("/start", tg.Command{Description: "使い方を表示", Handler: help, Hidden: true})
	reg.RegisterCommand("/help", tg.Command{Description: "使い方を表示", Handler: help})
	reg.RegisterCommand("/cancel", tg.Command{
		Description: "入力を中止",
		Handler: func(c tele.Context) error {
			reply, ok := tk.Cancel(tghelpers.BuildContext(c), userKey(c))
			if !ok {
				return nil
			}
			return tghelpers.SendText(c, reply)
		},
	})
}

// DialogueHandler feeds each text message into the user's session and sends
// the reply, if there is one.
func DialogueHandler(tk Talker, opts Options) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		reply, ok, err := tk.Dialogue(ctx, userKey(c), c.Text())
		if err != nil {
			logger.Error(ctx, "talk", "dialogue",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			if opts.ErrorText == "" {
				return nil
			}
			return tghelpers.SendText(c, opts.ErrorText)
		}
		if !ok || reply == "" {
			return nil
		}
		return tghelpers.SendText(c, reply)
	}
}

func userKey(c tele.Context) string {
	if u := c.Sender(); u != nil {
		return strconv.FormatInt(u.ID, 10)
	}
	if ch := c.Chat(); ch != nil {
		return strconv.FormatInt(ch.ID, 10)
	}
	return "0"
}
