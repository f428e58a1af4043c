package flow

import (
	"errors"
	"fmt"

	"github.com/m3rciful/postbot/internal/posts"
)

func (e *Engine) askTitle(t *Turn) error {
	e.reply(t, Message{Text: e.texts.AskTitle, Buttons: [][]Button{e.cancelRow()}})
	return nil
}

// takeLength validates free text; on failure the user is told the bound and the step repeats.
func (e *Engine) takeLength(t *Turn, limit int) (string, bool) {
	v, ok := validLength(t.ev.Text, limit)
	if !ok {
		e.send(t.ctx, t.out, t.ev.ChatID, Message{Text: fmt.Sprintf(e.texts.BadLength, limit)})
		t.Stay()
	}
	return v, ok
}

// takeUniqueTitle is takeLength for titles, also refusing a title that a
// post other than except already uses.
func (e *Engine) takeUniqueTitle(t *Turn, except int64) (string, bool, error) {
	title, ok := e.takeLength(t, MaxTitleRunes)
	if !ok {
		return "", false, nil
	}
	taken, err := e.store.TitleTaken(t.ctx, title, except)
	if err != nil {
		return "", false, fmt.Errorf("check title: %w", err)
	}
	if taken {
		e.send(t.ctx, t.out, t.ev.ChatID, Message{Text: e.texts.TitleTaken})
		t.Stay()
		return "", false, nil
	}
	return title, true, nil
}

func (e *Engine) takeTitle(t *Turn) error {
	title, ok, err := e.takeUniqueTitle(t, 0)
	if !ok {
		return err
	}
	t.sess.Set(keyTitle, title)
	e.send(t.ctx, t.out, t.ev.ChatID, Message{Text: e.texts.AskText, Buttons: [][]Button{e.cancelRow()}})
	return nil
}

func (e *Engine) takeText(t *Turn) error {
	text, ok := e.takeLength(t, MaxTextRunes)
	if !ok {
		return nil
	}
	t.sess.Set(keyText, text)
	e.send(t.ctx, t.out, t.ev.ChatID, Message{
		Text: e.texts.AskPhoto,
		Buttons: [][]Button{{
			{Label: e.texts.BtnSkipPhoto, Action: ActSkip, Payload: createToken},
			menuButton(e.texts.BtnCancel, KindCancel),
		}},
	})
	return nil
}

func (e *Engine) createWithPhoto(t *Turn) error {
	photo := t.ev.PhotoID
	return e.create(t, &photo)
}

func (e *Engine) createWithoutPhoto(t *Turn) error {
	return e.create(t, nil)
}

// create persists the draft first; success is reported only after the write.
func (e *Engine) create(t *Turn, photo *string) error {
	d := posts.Draft{
		Title:    t.sess.Get(keyTitle),
		Text:     t.sess.Get(keyText),
		PhotoRef: photo,
		Author:   t.ev.User.Label(),
	}
	if d.Title == "" || d.Text == "" {
		return errors.New("create post: incomplete draft")
	}
	p, err := e.store.Create(t.ctx, d)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if photo != nil {
		e.archivePhoto(t.ctx, p.ID, *photo)
	}
	e.notifyPending(t.ctx, p.ID, p.Title, p.Author)
	e.reply(t, Message{Text: fmt.Sprintf(e.texts.Created, p.ID)})
	return nil
}
