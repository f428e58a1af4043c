package flow

import (
	"strings"

	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/access"
	"github.com/m3rciful/postbot/internal/posts"
)

// Kind classifies an inbound event for the transition table.
type Kind string

// Commands.
const (
	KindStart  Kind = "start"
	KindUpload Kind = "upload"
	KindList   Kind = "list"
	KindEdit   Kind = "edit"
	KindDelete Kind = "delete"
	KindReview Kind = "review"
	KindCancel Kind = "cancel"
)

// Inputs.
const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
	KindSkip  Kind = "skip"
)

// Selections made with inline buttons.
const (
	KindPickEdit     Kind = "pick_edit"
	KindPickDelete   Kind = "pick_delete"
	KindPickReview   Kind = "pick_review"
	KindReviewFilter Kind = "review_filter"
	KindField        Kind = "field"
	KindReviewAction Kind = "review_action"
	KindReviewChange Kind = "review_change"
	KindConfirm      Kind = "confirm"
	KindAbort        Kind = "abort"
)

// Callback keys used in inline buttons.
const (
	ActMenu         = "menu"
	ActPick         = "pick"
	ActField        = "field"
	ActReviewFilter = "revf"
	ActReviewAction = "reva"
	ActReviewChange = "revc"
	ActConfirm      = "confirm"
	ActAbort        = "abort"
	ActSkip         = "skip"
)

// CallbackKeys lists every key EventFromCallback understands.
var CallbackKeys = []string{
	ActMenu, ActPick, ActField, ActReviewFilter, ActReviewAction,
	ActReviewChange, ActConfirm, ActAbort, ActSkip,
}

// pick payload prefixes
const (
	pickEdit   = "edit"
	pickDelete = "delete"
	pickReview = "review"
)

// MessageRef points at a message previously sent by the bot.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Event is one user action, already stripped of transport details.
type Event struct {
	Kind     Kind
	User     access.Identity
	ChatID   int64
	Text     string
	PhotoID  string
	Payload  string
	Callback bool
	// Origin is the message whose button was pressed, if any.
	Origin *MessageRef
}

// CommandKind maps a slash command (without the slash) to its event kind.
func CommandKind(name string) (Kind, bool) {
	switch k := Kind(strings.ToLower(strings.TrimPrefix(name, "/"))); k {
	case KindStart, KindUpload, KindList, KindEdit, KindDelete, KindReview, KindCancel, KindSkip:
		return k, true
	case "posts":
		return KindList, true
	}
	return "", false
}

// EventFromCallback maps a callback key and payload to an event kind and
// the payload the action expects.
func EventFromCallback(key, payload string) (Kind, string, bool) {
	switch key {
	case ActMenu:
		switch k := Kind(payload); k {
		case KindUpload, KindList, KindEdit, KindDelete, KindReview, KindCancel:
			return k, "", true
		}
	case ActPick:
		target, id, ok := strings.Cut(payload, ":")
		if !ok {
			return "", "", false
		}
		switch target {
		case pickEdit:
			return KindPickEdit, id, true
		case pickDelete:
			return KindPickDelete, id, true
		case pickReview:
			return KindPickReview, id, true
		}
	case ActField:
		return KindField, payload, true
	case ActReviewFilter:
		return KindReviewFilter, payload, true
	case ActReviewAction:
		return KindReviewAction, payload, true
	case ActReviewChange:
		return KindReviewChange, payload, true
	case ActConfirm:
		return KindConfirm, payload, true
	case ActAbort:
		return KindAbort, payload, true
	case ActSkip:
		return KindSkip, payload, true
	}
	return "", "", false
}

// Prompt tokens tie confirm, abort, skip and field buttons to the prompt
// they were sent with.
const createToken = "create"

func editToken(id int64) string { return pickEdit + ":" + idPayload(id) }
func deleteToken(id int64) string { return pickDelete + ":" + idPayload(id) }

func reviewToken(s posts.Status, id int64) string {
	return pickReview + ":" + reviewPayload(s, id)
}

// fieldPayload encodes "<edit token>:<field>".
func fieldPayload(id int64, f posts.Field) string {
	return editToken(id) + ":" + string(f)
}

func splitFieldPayload(payload string) (token, field string) {
	i := strings.LastIndexByte(payload, ':')
	if i < 0 {
		return "", payload
	}
	return payload[:i], payload[i+1:]
}

// promptToken is the token of the prompt sess is waiting on, or "" when
// no scoped buttons are outstanding.
func promptToken(sess *state.Session) string {
	id, _ := sess.GetInt64(keyPostID)
	switch sess.State {
	case AwaitingPhoto:
		return createToken
	case AwaitingEditFieldChoice, AwaitingEditValue:
		return editToken(id)
	case AwaitingDeleteConfirmation:
		return deleteToken(id)
	case AwaitingReviewNote, AwaitingReviewConfirmation:
		return reviewToken(posts.Status(sess.Get(keyStatus)), id)
	}
	return ""
}

// fromCurrentPrompt reports whether ev may act on the prompt sess is
// waiting on. Typed input and unscoped buttons always may.
func fromCurrentPrompt(sess *state.Session, ev Event) bool {
	if !ev.Callback {
		return true
	}
	token := promptToken(sess)
	switch ev.Kind {
	case KindConfirm, KindAbort, KindSkip:
		return token != "" && ev.Payload == token
	case KindField:
		got, _ := splitFieldPayload(ev.Payload)
		return token != "" && got == token
	}
	return true
}
