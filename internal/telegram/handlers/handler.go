package handlers

import (
	"context"
)

// Routes. Commands route by name, everything else by update kind.
const (
	RouteStart    = "start"
	RouteHelp     = "help"
	RouteTest     = "test"
	RouteArticle  = "article"
	RouteText     = "TEXT"
	RouteCallback = "CALLBACK"
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID       int64
	UserID       int64
	MessageID    int
	Text         string
	Args         string
	CallbackData string
	CallbackID   string
}

// Handler processes the messages of one route
type Handler interface {
	Handle(ctx context.Context, msg *Message) error

	// Route returns the command or update kind this handler serves
	Route() string
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	route         string
	messageSender *MessageSender
}

// Route implements Handler
func (h *BaseHandler) Route() string {
	return h.route
}

// sendMessage is a convenience wrapper for messageSender.Send
func (h *BaseHandler) sendMessage(chatID int64, text string, markup any) error {
	return h.messageSender.Send(chatID, text, markup)
}

var validRoutes = map[string]bool{
	RouteStart:    true,
	RouteHelp:     true,
	RouteTest:     true,
	RouteArticle:  true,
	RouteText:     true,
	RouteCallback: true,
}

// IsValidRoute checks if a route is valid for handler registration
func IsValidRoute(route string) bool {
	_, ok := validRoutes[route]
	return ok
}
