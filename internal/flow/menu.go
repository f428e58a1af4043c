package flow

import (
	"errors"
	"fmt"

	"github.com/m3rciful/postbot/internal/access"
	"github.com/m3rciful/postbot/internal/posts"
)

// scratch keys
const (
	keyTitle  = "title"
	keyText   = "text"
	keyPostID = "post_id"
	keyField  = "field"
	keyStatus = "status"
	keyNote   = "note"
)

func menuButton(label string, k Kind) Button {
	return Button{Label: label, Action: ActMenu, Payload: string(k)}
}

func (e *Engine) cancelRow() []Button {
	return []Button{menuButton(e.texts.BtnCancel, KindCancel)}
}

func (e *Engine) showMenu(t *Turn) error {
	tx := e.texts
	rows := [][]Button{
		{menuButton(tx.BtnUpload, KindUpload), menuButton(tx.BtnList, KindList)},
		{menuButton(tx.BtnEdit, KindEdit), menuButton(tx.BtnDelete, KindDelete)},
	}
	if t.role >= access.RoleReviewer {
		rows = append(rows, []Button{menuButton(tx.BtnReview, KindReview)})
	}
	e.reply(t, Message{Text: tx.Menu, Buttons: rows})
	return nil
}

func (e *Engine) cancel(t *Turn) error {
	e.reply(t, Message{Text: e.texts.Cancelled})
	return nil
}

func (e *Engine) listAll(t *Turn) error {
	all, err := e.store.ListFull(t.ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	if len(all) == 0 {
		e.reply(t, Message{Text: e.texts.NoPosts})
		return nil
	}
	e.reply(t, Message{Text: e.texts.PostsHeader})
	for _, p := range all {
		meta := []string{fmt.Sprintf("#%d · %s", p.ID, e.texts.status(p.Status))}
		e.send(t.ctx, t.out, t.ev.ChatID, postMessage(p, meta))
	}
	return nil
}

func (e *Engine) listForEdit(t *Turn) error {
	return e.pickList(t, e.texts.PickEdit, pickEdit)
}

func (e *Engine) listForDelete(t *Turn) error {
	return e.pickList(t, e.texts.PickDelete, pickDelete)
}

func (e *Engine) pickList(t *Turn, prompt, target string) error {
	list, err := e.store.List(t.ctx, nil)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	if len(list) == 0 {
		e.reply(t, Message{Text: e.texts.NoPosts})
		return nil
	}
	rows := append(pickButtons(list, target), e.cancelRow())
	e.reply(t, Message{Text: prompt, Buttons: rows})
	return nil
}

// loadTarget resolves the post id carried by the event payload. It reports
// false after telling the user when the post does not exist.
func (e *Engine) loadTarget(t *Turn, payload string) (posts.Post, bool, error) {
	id, ok := parseID(payload)
	if !ok {
		e.notFound(t)
		return posts.Post{}, false, nil
	}
	return e.loadPost(t, id)
}

func (e *Engine) loadPost(t *Turn, id int64) (posts.Post, bool, error) {
	p, err := e.store.Get(t.ctx, id)
	if errors.Is(err, posts.ErrNotFound) {
		e.notFound(t)
		return posts.Post{}, false, nil
	}
	if err != nil {
		return posts.Post{}, false, fmt.Errorf("get post %d: %w", id, err)
	}
	return p, true, nil
}

// sessionPost loads the post whose id is kept in the scratch data.
func (e *Engine) sessionPost(t *Turn) (posts.Post, bool, error) {
	id, ok := t.sess.GetInt64(keyPostID)
	if !ok {
		e.notFound(t)
		return posts.Post{}, false, nil
	}
	return e.loadPost(t, id)
}

// retract removes the channel copy of p. It returns a user-facing warning
// when the channel refused; the store operation goes ahead either way.
func (e *Engine) retract(t *Turn, p posts.Post) string {
	if e.publisher == nil || p.ChannelMessageID == nil {
		return ""
	}
	if err := e.publisher.Retract(t.ctx, *p.ChannelMessageID); err != nil {
		e.warn(t, "flow.channel_retract", p.ID, err)
		return e.texts.ChannelRetractFailed
	}
	if err := e.store.SetChannelMessage(t.ctx, p.ID, nil); err != nil && !errors.Is(err, posts.ErrNotFound) {
		e.warn(t, "flow.channel_retract", p.ID, err)
	}
	return ""
}

func withWarnings(text string, warnings ...string) string {
	for _, w := range warnings {
		if w != "" {
			text += "\n" + w
		}
	}
	return text
}
