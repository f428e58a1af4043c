package router

import (
	"strings"
	"time"

	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation receives free-form input (text, photos) for users in a dialogue.
type Conversation interface {
	HandleInput(c tele.Context) error
}

// MessageOptions controls fallback behaviour for updates the conversation does not take.
type MessageOptions struct {
	UnknownDocument tele.HandlerFunc
}

// MessageRoutes builds handlers for text, photo and document messages.
// Slash text that Telebot did not route itself (aliases such as /list) is
// resolved through the registry; everything else goes to the conversation.
func MessageRoutes(conv Conversation, reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		if text := c.Text(); reg != nil && strings.HasPrefix(text, "/") {
			if key, cmd, ok := reg.LookupCommand(commandWord(text)); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
					return cmd.Handler(c)
				})
			}
		}
		if conv == nil {
			logHandlerSummary(c, "unknown_text", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "conversation.text", start, func() error {
			return conv.HandleInput(c)
		})
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		if conv == nil {
			logHandlerSummary(c, "unexpected_photo", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "conversation.photo", start, func() error {
			return conv.HandleInput(c)
		})
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument == nil {
			logHandlerSummary(c, "unexpected_document", start, "skip", nil)
			return nil
		}
		return handleWithSummary(c, "unexpected_document", start, func() error {
			return opts.UnknownDocument(c)
		})
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnPhoto, Handler: wrap(photoHandler)},
		{Endpoint: tele.OnDocument, Handler: wrap(docHandler)},
	}
}

// commandWord strips arguments and the @bot suffix from a slash command.
func commandWord(text string) string {
	word, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word)
}
