package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/postbot/internal/posts"
)

func (e *Engine) askField(t *Turn) error {
	p, ok, err := e.loadTarget(t, t.ev.Payload)
	if !ok {
		return err
	}
	t.sess.SetInt64(keyPostID, p.ID)
	row := make([]Button, 0, len(posts.Fields))
	for _, f := range posts.Fields {
		row = append(row, Button{Label: e.texts.FieldNames[f], Action: ActField, Payload: fieldPayload(p.ID, f)})
	}
	e.reply(t, Message{
		Text:    fmt.Sprintf(e.texts.FieldMenu, p.ID) + "\n\n" + PostBody(p),
		Buttons: [][]Button{row, {{Label: e.texts.BtnCancel, Action: ActAbort, Payload: editToken(p.ID)}}},
	})
	return nil
}

func (e *Engine) askValue(t *Turn) error {
	_, name := splitFieldPayload(t.ev.Payload)
	f, err := posts.ParseField(name)
	if err != nil {
		e.notice(t, e.texts.RepromptPick)
		t.Stay()
		return nil
	}
	id, _ := t.sess.GetInt64(keyPostID)
	t.sess.Set(keyField, string(f))
	e.reply(t, e.valuePrompt(f, id))
	return nil
}

func (e *Engine) valuePrompt(f posts.Field, id int64) Message {
	token := editToken(id)
	abort := Button{Label: e.texts.BtnCancel, Action: ActAbort, Payload: token}
	switch f {
	case posts.FieldTitle:
		return Message{Text: e.texts.AskNewTitle, Buttons: [][]Button{{abort}}}
	case posts.FieldText:
		return Message{Text: e.texts.AskNewText, Buttons: [][]Button{{abort}}}
	}
	return Message{
		Text:    e.texts.AskNewPhoto,
		Buttons: [][]Button{{{Label: e.texts.BtnRemovePhoto, Action: ActSkip, Payload: token}, abort}},
	}
}

// editField returns the field chosen earlier; a wrong input kind re-prompts.
func (e *Engine) editField(t *Turn, wantPhoto bool) (posts.Field, bool) {
	f, err := posts.ParseField(t.sess.Get(keyField))
	if err != nil {
		e.notFound(t)
		return "", false
	}
	if (f == posts.FieldPhoto) != wantPhoto {
		id, _ := t.sess.GetInt64(keyPostID)
		prompt := e.valuePrompt(f, id)
		if t.ev.Callback {
			e.notice(t, prompt.Text)
		} else {
			e.send(t.ctx, t.out, t.ev.ChatID, prompt)
		}
		t.Stay()
		return "", false
	}
	return f, true
}

func (e *Engine) applyText(t *Turn) error {
	f, ok := e.editField(t, false)
	if !ok {
		return nil
	}
	if f == posts.FieldTitle {
		id, _ := t.sess.GetInt64(keyPostID)
		v, ok, err := e.takeUniqueTitle(t, id)
		if !ok {
			return err
		}
		return e.update(t, posts.TitleValue(v))
	}
	v, ok := e.takeLength(t, MaxTextRunes)
	if !ok {
		return nil
	}
	return e.update(t, posts.TextValue(v))
}

func (e *Engine) applyPhoto(t *Turn) error {
	if _, ok := e.editField(t, true); !ok {
		return nil
	}
	return e.update(t, posts.PhotoValue(t.ev.PhotoID))
}

func (e *Engine) removePhoto(t *Turn) error {
	if _, ok := e.editField(t, true); !ok {
		return nil
	}
	return e.update(t, posts.NoPhoto())
}

// update writes one field; the store resets the status to pending, so any
// channel copy is withdrawn beforehand.
func (e *Engine) update(t *Turn, v posts.FieldValue) error {
	p, ok, err := e.sessionPost(t)
	if !ok {
		return err
	}
	warning := e.retract(t, p)
	err = e.store.UpdateField(t.ctx, p.ID, v)
	if errors.Is(err, posts.ErrNotFound) {
		e.notFound(t)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update post %d: %w", p.ID, err)
	}
	switch v.Field() {
	case posts.FieldPhoto:
		e.archivePhoto(t.ctx, p.ID, t.ev.PhotoID)
	case posts.FieldTitle:
		p.Title = strings.TrimSpace(t.ev.Text)
	}
	e.notifyPending(t.ctx, p.ID, p.Title, p.Author)
	e.reply(t, Message{Text: withWarnings(fmt.Sprintf(e.texts.Updated, p.ID), warning)})
	return nil
}
