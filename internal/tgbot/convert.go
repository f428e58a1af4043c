package tgbot

import (
	"github.com/m3rciful/postbot/core/telegram/callbacks"
	"github.com/m3rciful/postbot/core/telegram/keyboard"
	"github.com/m3rciful/postbot/internal/access"
	"github.com/m3rciful/postbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

func identity(u *tele.User) access.Identity {
	if u == nil {
		return access.Identity{}
	}
	return access.Identity{ID: u.ID, Username: u.Username}
}

func chatID(ch *tele.Chat, u *tele.User) int64 {
	if ch != nil {
		return ch.ID
	}
	if u != nil {
		return u.ID
	}
	return 0
}

// inputEvent converts a plain message; ok is false for content the flows never take.
func inputEvent(m *tele.Message) (flow.Event, bool) {
	if m == nil {
		return flow.Event{}, false
	}
	ev := flow.Event{User: identity(m.Sender), ChatID: chatID(m.Chat, m.Sender)}
	switch {
	case m.Photo != nil:
		ev.Kind = flow.KindPhoto
		ev.PhotoID = m.Photo.FileID
	case m.Text != "":
		ev.Kind = flow.KindText
		ev.Text = m.Text
	default:
		return flow.Event{}, false
	}
	return ev, true
}

func commandEvent(k flow.Kind, m *tele.Message) flow.Event {
	ev := flow.Event{Kind: k}
	if m != nil {
		ev.User = identity(m.Sender)
		ev.ChatID = chatID(m.Chat, m.Sender)
		ev.Text = m.Payload
	}
	return ev
}

func callbackEvent(cb *tele.Callback) (flow.Event, bool) {
	if cb == nil {
		return flow.Event{}, false
	}
	key, payload := callbacks.ParseCallbackData(cb)
	kind, payload, ok := flow.EventFromCallback(key, payload)
	if !ok {
		return flow.Event{}, false
	}
	ev := flow.Event{
		Kind:     kind,
		User:     identity(cb.Sender),
		Payload:  payload,
		Callback: true,
	}
	if m := cb.Message; m != nil && m.Chat != nil {
		ev.ChatID = m.Chat.ID
		ev.Origin = &flow.MessageRef{ChatID: m.Chat.ID, MessageID: m.ID}
	} else {
		ev.ChatID = chatID(nil, cb.Sender)
	}
	return ev, true
}

func markup(rows [][]flow.Button) *tele.ReplyMarkup {
	btns := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		r := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			r = append(r, keyboard.InlineBtn{Text: b.Label, Unique: b.Action, Data: b.Payload})
		}
		btns = append(btns, r)
	}
	return keyboard.InlineButtonsRows(btns...)
}

// content builds what telebot sends: a captioned photo or HTML text.
func content(m flow.Message) (any, *tele.SendOptions) {
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup(m.Buttons)}
	if m.PhotoID != "" {
		return &tele.Photo{File: tele.File{FileID: m.PhotoID}, Caption: m.Text}, opts
	}
	opts.DisableWebPagePreview = true
	return m.Text, opts
}
