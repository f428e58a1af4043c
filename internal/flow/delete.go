package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/postbot/core/telegram/format"
	"github.com/m3rciful/postbot/internal/posts"
)

func (e *Engine) askDeleteConfirmation(t *Turn) error {
	p, ok, err := e.loadTarget(t, t.ev.Payload)
	if !ok {
		return err
	}
	t.sess.SetInt64(keyPostID, p.ID)
	e.reply(t, Message{
		Text:    fmt.Sprintf(e.texts.ConfirmDelete, p.ID, format.EscapeHTML(p.Title), format.EscapeHTML(e.texts.DeleteToken)),
		Buttons: [][]Button{e.confirmRow(deleteToken(p.ID))},
	})
	return nil
}

func (e *Engine) deleteConfirmed(t *Turn) error {
	return e.deletePost(t)
}

// deleteByToken deletes only when the typed text is the confirmation token.
func (e *Engine) deleteByToken(t *Turn) error {
	if strings.EqualFold(strings.TrimSpace(t.ev.Text), e.texts.DeleteToken) {
		return e.deletePost(t)
	}
	return e.deleteAborted(t)
}

func (e *Engine) deleteAborted(t *Turn) error {
	e.reply(t, Message{Text: e.texts.DeleteAborted})
	return nil
}

func (e *Engine) deletePost(t *Turn) error {
	p, ok, err := e.sessionPost(t)
	if !ok {
		return err
	}
	warning := e.retract(t, p)
	err = e.store.Delete(t.ctx, p.ID)
	if errors.Is(err, posts.ErrNotFound) {
		e.notFound(t)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete post %d: %w", p.ID, err)
	}
	e.reply(t, Message{Text: withWarnings(fmt.Sprintf(e.texts.Deleted, p.ID), warning)})
	return nil
}
