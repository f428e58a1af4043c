package flow

import (
	"errors"
	"fmt"

	"github.com/m3rciful/postbot/internal/posts"
)

func (e *Engine) reviewPending(t *Turn) error {
	return e.reviewList(t, posts.StatusPending)
}

func (e *Engine) reviewFiltered(t *Turn) error {
	s, err := posts.ParseStatus(t.ev.Payload)
	if err != nil {
		s = posts.StatusPending
	}
	return e.reviewList(t, s)
}

func (e *Engine) reviewList(t *Turn, s posts.Status) error {
	list, err := e.store.List(t.ctx, &s)
	if err != nil {
		return fmt.Errorf("list %s posts: %w", s, err)
	}
	name := e.texts.status(s)
	text := fmt.Sprintf(e.texts.ReviewList, name)
	if len(list) == 0 {
		text = fmt.Sprintf(e.texts.ReviewEmpty, name)
	}
	rows := append(pickButtons(list, pickReview), e.filterRow(s))
	e.reply(t, Message{Text: text, Buttons: rows})
	return nil
}

// detail renders a post with its review state and the reviewer actions.
func (e *Engine) detail(p posts.Post) Message {
	tx := e.texts
	m := postMessage(p, e.detailMeta(p))
	m.Buttons = [][]Button{
		{
			{Label: tx.BtnApprove, Action: ActReviewAction, Payload: reviewPayload(posts.StatusApproved, p.ID)},
			{Label: tx.BtnReject, Action: ActReviewAction, Payload: reviewPayload(posts.StatusRejected, p.ID)},
		},
		{
			{Label: tx.BtnNeedsEdit, Action: ActReviewAction, Payload: reviewPayload(posts.StatusNeedsEdit, p.ID)},
			{Label: tx.BtnChange, Action: ActReviewChange, Payload: idPayload(p.ID)},
		},
		{{Label: tx.BtnBack, Action: ActReviewFilter, Payload: string(p.Status)}},
	}
	return m
}

func (e *Engine) showReviewDetail(t *Turn) error {
	p, ok, err := e.loadTarget(t, t.ev.Payload)
	if !ok {
		return err
	}
	e.reply(t, e.detail(p))
	return nil
}

func (e *Engine) askNewStatus(t *Turn) error {
	p, ok, err := e.loadTarget(t, t.ev.Payload)
	if !ok {
		return err
	}
	rows := make([][]Button, 0, len(posts.Statuses)+1)
	for _, s := range posts.Statuses {
		rows = append(rows, []Button{{
			Label:   e.texts.status(s),
			Action:  ActReviewAction,
			Payload: reviewPayload(s, p.ID),
		}})
	}
	rows = append(rows, []Button{{Label: e.texts.BtnBack, Action: ActPick, Payload: pickReview + ":" + idPayload(p.ID)}})
	e.reply(t, Message{Text: fmt.Sprintf(e.texts.PickStatus, p.ID), Buttons: rows})
	return nil
}

// startReviewAction records the chosen status and asks for confirmation;
// needs_edit first collects a note.
func (e *Engine) startReviewAction(t *Turn) error {
	s, id, ok := parseReviewPayload(t.ev.Payload)
	if !ok {
		e.notFound(t)
		return nil
	}
	p, ok, err := e.loadPost(t, id)
	if !ok {
		return err
	}
	t.sess.SetInt64(keyPostID, p.ID)
	t.sess.Set(keyStatus, string(s))
	if s == posts.StatusNeedsEdit {
		t.GoTo(AwaitingReviewNote)
		e.send(t.ctx, t.out, t.ev.ChatID, Message{
			Text:    e.texts.AskNote,
			Buttons: [][]Button{{{Label: e.texts.BtnCancel, Action: ActAbort, Payload: reviewToken(s, p.ID)}}},
		})
		return nil
	}
	e.askReviewConfirmation(t, p.ID, s)
	return nil
}

func (e *Engine) askReviewConfirmation(t *Turn, id int64, s posts.Status) {
	e.send(t.ctx, t.out, t.ev.ChatID, Message{
		Text:    fmt.Sprintf(e.texts.ConfirmReview, id, e.texts.status(s)),
		Buttons: [][]Button{e.confirmRow(reviewToken(s, id))},
	})
}

func (e *Engine) takeNote(t *Turn) error {
	note, ok := e.takeLength(t, MaxNoteRunes)
	if !ok {
		return nil
	}
	id, ok := t.sess.GetInt64(keyPostID)
	if !ok {
		e.notFound(t)
		return nil
	}
	t.sess.Set(keyNote, note)
	e.askReviewConfirmation(t, id, posts.StatusNeedsEdit)
	return nil
}

// reviewAborted shows the detail view again without touching the post.
func (e *Engine) reviewAborted(t *Turn) error {
	p, ok, err := e.sessionPost(t)
	if !ok {
		return err
	}
	e.notice(t, e.texts.ReviewAborted)
	e.reply(t, e.detail(p))
	return nil
}

func (e *Engine) commitReview(t *Turn) error {
	s, err := posts.ParseStatus(t.sess.Get(keyStatus))
	if err != nil {
		e.notFound(t)
		return nil
	}
	p, ok, err := e.sessionPost(t)
	if !ok {
		return err
	}
	var warnings []string
	channelID := p.ChannelMessageID
	if p.Status == posts.StatusApproved && s != posts.StatusApproved && channelID != nil {
		warnings = append(warnings, e.retract(t, p))
		channelID = nil
	}
	err = e.store.SetStatus(t.ctx, p.ID, posts.Review{
		Status:   s,
		Reviewer: t.ev.User.Label(),
		Note:     t.sess.Get(keyNote),
	})
	if errors.Is(err, posts.ErrNotFound) {
		e.notFound(t)
		return nil
	}
	if err != nil {
		return fmt.Errorf("set status of post %d: %w", p.ID, err)
	}
	if s == posts.StatusApproved && channelID == nil {
		warnings = append(warnings, e.publish(t, p))
	}
	text := fmt.Sprintf(e.texts.ReviewDone, p.ID, e.texts.status(s))
	e.reply(t, Message{Text: withWarnings(text, warnings...)})
	return nil
}

// publish relays p to the channel and records the message id.
func (e *Engine) publish(t *Turn, p posts.Post) string {
	if e.publisher == nil {
		return ""
	}
	msgID, err := e.publisher.Publish(t.ctx, p)
	if err != nil {
		e.warn(t, "flow.channel_publish", p.ID, err)
		return e.texts.ChannelPublishFailed
	}
	if err := e.store.SetChannelMessage(t.ctx, p.ID, &msgID); err != nil {
		e.warn(t, "flow.channel_publish", p.ID, err)
	}
	return ""
}
