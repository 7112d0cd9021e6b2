package middleware

import (
	"strings"

	coreconfig "github.com/m3rciful/pricebot/core/config"

	tele "gopkg.in/telebot.v4"
)

// UpdateKind labels c as a slash command, a plain message or "other".
func UpdateKind(c tele.Context) string {
	msg := c.Message()
	if msg == nil {
		return "other"
	}
	if strings.HasPrefix(msg.Text, "/") {
		return coreconfig.UpdateCommand
	}
	return coreconfig.UpdateMessage
}
