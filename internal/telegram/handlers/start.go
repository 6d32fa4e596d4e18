package handlers

import (
	"context"

	"github.com/futig/traffic-law-assistant/internal/telegram/render"
)

// StaticHandler replies with a fixed text, used for /start and /help
type StaticHandler struct {
	BaseHandler
	text string
}

func NewStartHandler(sender *MessageSender) *StaticHandler {
	return &StaticHandler{
		BaseHandler: BaseHandler{route: RouteStart, messageSender: sender},
		text:        render.MsgWelcome,
	}
}

func NewHelpHandler(sender *MessageSender) *StaticHandler {
	return &StaticHandler{
		BaseHandler: BaseHandler{route: RouteHelp, messageSender: sender},
		text:        render.MsgHelp,
	}
}

func (h *StaticHandler) Handle(ctx context.Context, msg *Message) error {
	return h.sendMessage(msg.ChatID, h.text, nil)
}
