package tgbot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/middleware"
	"github.com/m3rciful/postbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

// updateMessenger answers within one update. Sends are synchronous so that
// multi-message replies keep their order.
type updateMessenger struct {
	c tele.Context
}

func (m updateMessenger) Send(_ context.Context, chatID int64, msg flow.Message) (flow.MessageRef, error) {
	what, opts := content(msg)
	sent, err := m.c.Bot().Send(tele.ChatID(chatID), what, opts)
	if err != nil {
		return flow.MessageRef{}, err
	}
	middleware.CountMessage(m.c, opts.ReplyMarkup != nil)
	return flow.MessageRef{ChatID: chatID, MessageID: sent.ID}, nil
}

func (m updateMessenger) Edit(_ context.Context, ref flow.MessageRef, msg flow.Message) error {
	if msg.PhotoID != "" {
		return errors.New("tgbot: photo replies are sent, not edited")
	}
	_, opts := content(msg)
	stored := &tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
	_, err := m.c.Bot().Edit(stored, msg.Text, opts)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		err = nil
	}
	if err == nil {
		middleware.CountMessage(m.c, opts.ReplyMarkup != nil)
	}
	return err
}

func (m updateMessenger) Answer(_ context.Context, text string) error {
	if m.c.Callback() == nil {
		return errors.New("tgbot: no callback to answer")
	}
	callbacks.MarkAnswered(m.c)
	return m.c.Respond(&tele.CallbackResponse{Text: text})
}
