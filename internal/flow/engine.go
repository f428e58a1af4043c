// Package flow is the per-user conversation engine: a static transition
// table over (state, event kind) with one authorization guard in front.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/format"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/access"
)

// Authorizer resolves the role of a caller.
type Authorizer interface {
	RoleOf(id access.Identity) access.Role
}

// Options wires the engine collaborators. Publisher, Notifier and Archiver are optional.
type Options struct {
	Store     Store
	Sessions  state.Store
	Access    Authorizer
	Texts     *Texts
	Publisher Publisher
	Notifier  Notifier
	Archiver  Archiver
}

// Engine drives conversations. It is safe for concurrent use across users.
type Engine struct {
	store     Store
	sessions  state.Store
	access    Authorizer
	texts     *Texts
	publisher Publisher
	notifier  Notifier
	archiver  Archiver
}

// New validates opts and returns an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("flow: store is required")
	case opts.Sessions == nil:
		return nil, errors.New("flow: session store is required")
	case opts.Access == nil:
		return nil, errors.New("flow: access policy is required")
	}
	tx := opts.Texts
	if tx == nil {
		tx = &English
	}
	return &Engine{
		store:     opts.Store,
		sessions:  opts.Sessions,
		access:    opts.Access,
		texts:     tx,
		publisher: opts.Publisher,
		notifier:  opts.Notifier,
		archiver:  opts.Archiver,
	}, nil
}

// Turn is the context of one transition.
type Turn struct {
	ctx  context.Context
	ev   Event
	sess *state.Session
	out  Messenger
	role access.Role
	next state.State
}

// GoTo overrides the next state declared in the table.
func (t *Turn) GoTo(s state.State) { t.next = s }

// Stay keeps the current state.
func (t *Turn) Stay() { t.next = t.sess.State }

// Handle runs one event through the guard and the transition table.
// Errors from collaborators are reported to the user and logged; the
// returned error is reserved for programming faults.
func (e *Engine) Handle(ctx context.Context, ev Event, out Messenger) error {
	start := time.Now()
	role := e.access.RoleOf(ev.User)
	if role == access.RoleNone {
		logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "flow.denied",
			slog.String("event_kind", string(ev.Kind)),
			slog.String("outcome", "denied"),
		)
		e.send(ctx, out, ev.ChatID, Message{Text: e.texts.Denied})
		return nil
	}

	sess, err := e.sessions.Load(ctx, ev.User.ID)
	if err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "flow.session_load",
			slog.String("err", err.Error()),
		)
		e.send(ctx, out, ev.ChatID, Message{Text: e.texts.Failure})
		return nil
	}

	tr, ok := Lookup(sess.State, ev.Kind)
	if !ok {
		e.reprompt(ctx, out, ev, sess.State)
		logger.Debug(ctx, "flow", "flow.unmatched",
			slog.String("state", string(sess.State)),
			slog.String("event_kind", string(ev.Kind)),
		)
		return nil
	}
	if tr.Role == access.RoleReviewer && role < access.RoleReviewer {
		t := &Turn{ctx: ctx, ev: ev, out: out}
		e.notice(t, e.texts.ReviewerOnly)
		logger.LogEvent(ctx, logger.Flow, slog.LevelDebug, "flow.denied",
			slog.String("event_kind", string(ev.Kind)),
			slog.String("outcome", "denied"),
			slog.String("role", role.String()),
		)
		return nil
	}

	if !fromCurrentPrompt(&sess, ev) {
		e.reprompt(ctx, out, ev, sess.State)
		logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "flow.stale_button",
			slog.String("state", string(sess.State)),
			slog.String("event_kind", string(ev.Kind)),
		)
		return nil
	}

	from := sess.State
	if tr.From == AnyState {
		sess.Reset()
	}
	t := &Turn{ctx: ctx, ev: ev, sess: &sess, out: out, role: role, next: tr.Next}
	if err := tr.Action(e, t); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "flow.transition",
			slog.String("state", string(from)),
			slog.String("event_kind", string(ev.Kind)),
			slog.String("outcome", "fail"),
			slog.String("err", err.Error()),
		)
		e.send(ctx, out, ev.ChatID, Message{Text: e.texts.Failure})
		if err := e.sessions.Clear(ctx, ev.User.ID); err != nil {
			logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "flow.session_clear", slog.String("err", err.Error()))
		}
		return nil
	}

	sess.State = t.next
	if sess.Idle() {
		sess.Reset()
	}
	if err := e.sessions.Save(ctx, ev.User.ID, sess); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "flow.session_save", slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, logger.Flow, slog.LevelInfo, "flow.transition",
		slog.String("state", string(from)),
		slog.String("event_kind", string(ev.Kind)),
		slog.String("next_state", string(t.next)),
		slog.String("outcome", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// reprompt repeats the current step's question without changing state.
func (e *Engine) reprompt(ctx context.Context, out Messenger, ev Event, s state.State) {
	tx := e.texts
	text := tx.RepromptPick
	switch s {
	case Idle, "":
		text = tx.RepromptIdle
	case AwaitingTitle:
		text = tx.AskTitle
	case AwaitingText:
		text = tx.AskText
	case AwaitingPhoto:
		text = tx.RepromptPhoto
	case AwaitingReviewNote:
		text = tx.AskNote
	}
	t := &Turn{ctx: ctx, ev: ev, out: out}
	if ev.Callback {
		e.notice(t, text)
		return
	}
	e.send(ctx, out, ev.ChatID, Message{Text: text})
}

// send delivers a fresh message; delivery failures are logged only.
func (e *Engine) send(ctx context.Context, out Messenger, chatID int64, m Message) {
	if _, err := out.Send(ctx, chatID, m); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelError, "flow.send",
			slog.String("err", err.Error()),
		)
	}
}

// reply edits the message whose button was pressed, or sends a new one
// when there is none, the reply carries a photo, or the edit is refused.
func (e *Engine) reply(t *Turn, m Message) {
	if t.ev.Origin != nil && m.PhotoID == "" {
		err := t.out.Edit(t.ctx, *t.ev.Origin, m)
		if err == nil {
			return
		}
		logger.LogEvent(t.ctx, logger.Flow, slog.LevelWarn, "flow.edit_fallback",
			slog.String("err", err.Error()),
		)
	}
	e.send(t.ctx, t.out, t.ev.ChatID, m)
}

// notice answers a callback with a toast, or sends a message for commands.
func (e *Engine) notice(t *Turn, text string) {
	if t.ev.Callback {
		if err := t.out.Answer(t.ctx, text); err == nil {
			return
		}
	}
	e.send(t.ctx, t.out, t.ev.ChatID, Message{Text: text})
}

// notFound reports a missing post and ends the flow.
func (e *Engine) notFound(t *Turn) {
	e.reply(t, Message{Text: e.texts.NotFound})
	t.GoTo(Idle)
}

func (e *Engine) notifyPending(ctx context.Context, id int64, title, author string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, fmt.Sprintf(e.texts.NotifyPending, id, format.EscapeHTML(title), format.EscapeHTML(author)))
}

func (e *Engine) warn(t *Turn, event string, postID int64, err error) {
	logger.LogEvent(t.ctx, logger.Flow, slog.LevelWarn, event,
		slog.Int64("post_id", postID),
		slog.String("err", err.Error()),
	)
}

// archivePhoto mirrors the photo of post id; failures are logged only.
func (e *Engine) archivePhoto(ctx context.Context, id int64, photoID string) {
	if e.archiver == nil || photoID == "" {
		return
	}
	key, err := e.archiver.Archive(ctx, id, photoID)
	if err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "flow.archive",
			slog.Int64("post_id", id),
			slog.String("err", err.Error()),
		)
		return
	}
	if err := e.store.SetPhotoArchive(ctx, id, key); err != nil {
		logger.LogEvent(ctx, logger.Flow, slog.LevelWarn, "flow.archive",
			slog.Int64("post_id", id),
			slog.String("err", err.Error()),
		)
	}
}
