// Package tgbot connects the conversation engine to Telegram: it turns
// updates into flow events and implements the engine's transport side.
package tgbot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/commands"
	"github.com/m3rciful/postbot/core/telegram/format"
	"github.com/m3rciful/postbot/core/telegram/helpers"
	"github.com/m3rciful/postbot/core/telegram/router"
	"github.com/m3rciful/postbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// Engine is the part of flow.Engine the adapter drives.
type Engine interface {
	Handle(ctx context.Context, ev flow.Event, out flow.Messenger) error
}

// Bot routes Telegram updates into the engine.
type Bot struct {
	engine Engine
}

// New returns an adapter for engine.
func New(engine Engine) *Bot {
	return &Bot{engine: engine}
}

type commandSpec struct {
	name        string
	kind        flow.Kind
	description string
	hidden      bool
	aliases     []string
}

var commandSpecs = []commandSpec{
	{"/start", flow.KindStart, "Show the main menu", false, nil},
	{"/upload", flow.KindUpload, "Create a new post", false, nil},
	{"/posts", flow.KindList, "Show all saved posts", false, []string{"list"}},
	{"/edit", flow.KindEdit, "Edit a post", false, nil},
	{"/delete", flow.KindDelete, "Delete a post", false, nil},
	{"/review", flow.KindReview, "Review posts", false, nil},
	{"/cancel", flow.KindCancel, "Cancel the current action", false, nil},
	{"/skip", flow.KindSkip, "Skip the optional step", true, nil},
}

// Register adds the bot commands and callback keys to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	for _, spec := range commandSpecs {
		reg.RegisterCommand(spec.name, commands.Command{
			Handler:     b.command(spec.kind),
			Description: spec.description,
			Hidden:      spec.hidden,
			Aliases:     spec.aliases,
		})
	}
	for _, key := range flow.CallbackKeys {
		if err := reg.RegisterCallback(key, b.callback); err != nil {
			return fmt.Errorf("register callback %s: %w", key, err)
		}
	}
	return nil
}

// Routes returns every route the bot serves.
func (b *Bot) Routes(reg *tg.Registry) []tg.Route {
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg))
	return append(routes, router.MessageRoutes(b, reg, router.MessageOptions{})...)
}

func (b *Bot) command(k flow.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.dispatch(c, commandEvent(k, c.Message()))
	}
}

func (b *Bot) callback(c tele.Context) error {
	ev, ok := callbackEvent(c.Callback())
	if !ok {
		logger.LogEvent(helpers.BuildContext(c), logger.TG, slog.LevelDebug, "callback.unparsed",
			slog.String("cb_key", callbacks.CallbackKey(c)),
		)
		return nil
	}
	return b.dispatch(c, ev)
}

// LimitNotice returns the rate limiter's handler for dropped updates.
func LimitNotice(texts *flow.Texts) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			callbacks.MarkAnswered(c)
			return c.Respond(&tele.CallbackResponse{Text: texts.SlowDown})
		}
		return helpers.SendHTML(c, format.EscapeHTML(texts.SlowDown))
	}
}

// HandleInput receives free text and photos.
func (b *Bot) HandleInput(c tele.Context) error {
	ev, ok := inputEvent(c.Message())
	if !ok {
		return nil
	}
	return b.dispatch(c, ev)
}

func (b *Bot) dispatch(c tele.Context, ev flow.Event) error {
	ctx := helpers.WithHandler(c, "flow."+string(ev.Kind))
	return b.engine.Handle(ctx, ev, updateMessenger{c: c})
}
