package flow

import (
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/access"
)

// Conversation states.
const (
	Idle                       = state.StateIdle
	AwaitingTitle              state.State = "awaiting_title"
	AwaitingText               state.State = "awaiting_text"
	AwaitingPhoto              state.State = "awaiting_photo"
	AwaitingEditFieldChoice    state.State = "awaiting_edit_field_choice"
	AwaitingEditValue          state.State = "awaiting_edit_value"
	AwaitingReviewNote         state.State = "awaiting_review_note"
	AwaitingReviewConfirmation state.State = "awaiting_review_confirmation"
	AwaitingDeleteConfirmation state.State = "awaiting_delete_confirmation"
)

// AnyState matches every state. Transitions from it start a new flow and
// discard scratch data.
const AnyState state.State = "*"

// Action performs the side effects of a transition. It may redirect the
// next state through Turn.GoTo.
type Action func(e *Engine, t *Turn) error

// Transition is one row of the conversation table.
type Transition struct {
	From   state.State
	On     Kind
	Role   access.Role
	Next   state.State
	Action Action
}

type tableKey struct {
	from state.State
	on   Kind
}

var (
	transitions = []Transition{
		// entry points
		{AnyState, KindStart, access.RoleOperator, Idle, (*Engine).showMenu},
		{AnyState, KindCancel, access.RoleOperator, Idle, (*Engine).cancel},
		{AnyState, KindUpload, access.RoleOperator, AwaitingTitle, (*Engine).askTitle},
		{AnyState, KindList, access.RoleOperator, Idle, (*Engine).listAll},
		{AnyState, KindEdit, access.RoleOperator, Idle, (*Engine).listForEdit},
		{AnyState, KindDelete, access.RoleOperator, Idle, (*Engine).listForDelete},
		{AnyState, KindReview, access.RoleReviewer, Idle, (*Engine).reviewPending},
		{AnyState, KindPickEdit, access.RoleOperator, AwaitingEditFieldChoice, (*Engine).askField},
		{AnyState, KindPickDelete, access.RoleOperator, AwaitingDeleteConfirmation, (*Engine).askDeleteConfirmation},
		{AnyState, KindPickReview, access.RoleReviewer, Idle, (*Engine).showReviewDetail},
		{AnyState, KindReviewFilter, access.RoleReviewer, Idle, (*Engine).reviewFiltered},
		{AnyState, KindReviewChange, access.RoleReviewer, Idle, (*Engine).askNewStatus},
		{AnyState, KindReviewAction, access.RoleReviewer, AwaitingReviewConfirmation, (*Engine).startReviewAction},

		// creation
		{AwaitingTitle, KindText, access.RoleOperator, AwaitingText, (*Engine).takeTitle},
		{AwaitingText, KindText, access.RoleOperator, AwaitingPhoto, (*Engine).takeText},
		{AwaitingPhoto, KindPhoto, access.RoleOperator, Idle, (*Engine).createWithPhoto},
		{AwaitingPhoto, KindSkip, access.RoleOperator, Idle, (*Engine).createWithoutPhoto},

		// edit
		{AwaitingEditFieldChoice, KindField, access.RoleOperator, AwaitingEditValue, (*Engine).askValue},
		{AwaitingEditFieldChoice, KindAbort, access.RoleOperator, Idle, (*Engine).cancel},
		{AwaitingEditValue, KindText, access.RoleOperator, Idle, (*Engine).applyText},
		{AwaitingEditValue, KindPhoto, access.RoleOperator, Idle, (*Engine).applyPhoto},
		{AwaitingEditValue, KindSkip, access.RoleOperator, Idle, (*Engine).removePhoto},
		{AwaitingEditValue, KindAbort, access.RoleOperator, Idle, (*Engine).cancel},

		// delete
		{AwaitingDeleteConfirmation, KindConfirm, access.RoleOperator, Idle, (*Engine).deleteConfirmed},
		{AwaitingDeleteConfirmation, KindText, access.RoleOperator, Idle, (*Engine).deleteByToken},
		{AwaitingDeleteConfirmation, KindAbort, access.RoleOperator, Idle, (*Engine).deleteAborted},
		{AwaitingDeleteConfirmation, KindPhoto, access.RoleOperator, Idle, (*Engine).deleteAborted},
		{AwaitingDeleteConfirmation, KindSkip, access.RoleOperator, Idle, (*Engine).deleteAborted},

		// review
		{AwaitingReviewNote, KindText, access.RoleReviewer, AwaitingReviewConfirmation, (*Engine).takeNote},
		{AwaitingReviewNote, KindAbort, access.RoleReviewer, Idle, (*Engine).reviewAborted},
		{AwaitingReviewConfirmation, KindConfirm, access.RoleReviewer, Idle, (*Engine).commitReview},
		{AwaitingReviewConfirmation, KindAbort, access.RoleReviewer, Idle, (*Engine).reviewAborted},
	}

	index = buildIndex(transitions)
)

func buildIndex(rows []Transition) map[tableKey]Transition {
	m := make(map[tableKey]Transition, len(rows))
	for _, tr := range rows {
		k := tableKey{tr.From, tr.On}
		if _, dup := m[k]; dup {
			panic("flow: duplicate transition " + string(tr.From) + "/" + string(tr.On))
		}
		m[k] = tr
	}
	return m
}

// Transitions returns a copy of the full table.
func Transitions() []Transition {
	return append([]Transition(nil), transitions...)
}

// Lookup finds the transition for (from, on), preferring an exact state
// match over AnyState.
func Lookup(from state.State, on Kind) (Transition, bool) {
	if from == "" {
		from = Idle
	}
	if tr, ok := index[tableKey{from, on}]; ok {
		return tr, true
	}
	tr, ok := index[tableKey{AnyState, on}]
	return tr, ok
}
