package flow_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/access"
	"github.com/m3rciful/postbot/internal/flow"
	"github.com/m3rciful/postbot/internal/posts"
	"github.com/m3rciful/postbot/internal/posts/poststest"
)

var (
	operator = access.Identity{ID: 10, Username: "op"}
	reviewer = access.Identity{ID: 20, Username: "rev"}
	stranger = access.Identity{ID: 30, Username: "nobody"}
)

type fakeMessenger struct {
	sent    []flow.Message
	edited  []flow.Message
	log     []flow.Message
	answers []string
	editErr error
}

func (m *fakeMessenger) Send(_ context.Context, _ int64, msg flow.Message) (flow.MessageRef, error) {
	m.sent = append(m.sent, msg)
	m.log = append(m.log, msg)
	return flow.MessageRef{ChatID: 1, MessageID: len(m.sent)}, nil
}

func (m *fakeMessenger) Edit(_ context.Context, _ flow.MessageRef, msg flow.Message) error {
	if m.editErr != nil {
		return m.editErr
	}
	m.edited = append(m.edited, msg)
	m.log = append(m.log, msg)
	return nil
}

func (m *fakeMessenger) Answer(_ context.Context, text string) error {
	m.answers = append(m.answers, text)
	return nil
}

// last returns the most recent sent or edited text.
func (m *fakeMessenger) last() string {
	if len(m.log) == 0 {
		return ""
	}
	return m.log[len(m.log)-1].Text
}

func (m *fakeMessenger) reset() { *m = fakeMessenger{editErr: m.editErr} }

type fakePublisher struct {
	published   []int64
	retracted   []int64
	failRetract bool
}

func (p *fakePublisher) Publish(_ context.Context, post posts.Post) (int64, error) {
	p.published = append(p.published, post.ID)
	return 500 + post.ID, nil
}

func (p *fakePublisher) Retract(_ context.Context, msgID int64) error {
	if p.failRetract {
		return errors.New("telegram: message can't be deleted")
	}
	p.retracted = append(p.retracted, msgID)
	return nil
}

type fakeNotifier struct{ texts []string }

func (n *fakeNotifier) Notify(_ context.Context, text string) { n.texts = append(n.texts, text) }

type failingStore struct {
	flow.Store
	err error
}

func (s failingStore) Create(context.Context, posts.Draft) (posts.Post, error) {
	return posts.Post{}, s.err
}

type harness struct {
	t        *testing.T
	engine   *flow.Engine
	store    *posts.Store
	sessions *state.MemoryStore
	out      *fakeMessenger
	pub      *fakePublisher
	notes    *fakeNotifier
}

func newHarness(t *testing.T, wrap func(flow.Store) flow.Store) *harness {
	t.Helper()
	policy, err := access.NewPolicy([]string{"@op"}, []string{"rev"})
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	h := &harness{
		t:        t,
		store:    posts.NewStore(poststest.Open(t)),
		sessions: state.NewMemoryStore(0),
		out:      &fakeMessenger{},
		pub:      &fakePublisher{},
		notes:    &fakeNotifier{},
	}
	var store flow.Store = h.store
	if wrap != nil {
		store = wrap(store)
	}
	h.engine, err = flow.New(flow.Options{
		Store:     store,
		Sessions:  h.sessions,
		Access:    policy,
		Publisher: h.pub,
		Notifier:  h.notes,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return h
}

func (h *harness) do(user access.Identity, ev flow.Event) {
	h.t.Helper()
	ev.User = user
	ev.ChatID = user.ID
	if err := h.engine.Handle(context.Background(), ev, h.out); err != nil {
		h.t.Fatalf("handle %s: %v", ev.Kind, err)
	}
}

func (h *harness) cmd(user access.Identity, k flow.Kind) { h.do(user, flow.Event{Kind: k}) }

func (h *harness) text(user access.Identity, s string) {
	h.do(user, flow.Event{Kind: flow.KindText, Text: s})
}

func (h *harness) press(user access.Identity, k flow.Kind, payload string) {
	h.do(user, flow.Event{
		Kind:     k,
		Payload:  payload,
		Callback: true,
		Origin:   &flow.MessageRef{ChatID: user.ID, MessageID: 1},
	})
}

// button finds the newest button sent with action whose payload ends with suffix.
func (h *harness) button(action, suffix string) flow.Button {
	h.t.Helper()
	for i := len(h.out.log) - 1; i >= 0; i-- {
		for _, row := range h.out.log[i].Buttons {
			for _, b := range row {
				if b.Action == action && strings.HasSuffix(b.Payload, suffix) {
					return b
				}
			}
		}
	}
	h.t.Fatalf("no %s button ending in %q", action, suffix)
	return flow.Button{}
}

func (h *harness) pressButton(user access.Identity, b flow.Button) {
	h.t.Helper()
	kind, payload, ok := flow.EventFromCallback(b.Action, b.Payload)
	if !ok {
		h.t.Fatalf("button %+v does not map to an event", b)
	}
	h.press(user, kind, payload)
}

func (h *harness) tap(user access.Identity, action, suffix string) {
	h.t.Helper()
	h.pressButton(user, h.button(action, suffix))
}

func (h *harness) state(user access.Identity) state.State {
	h.t.Helper()
	s, err := h.sessions.Load(context.Background(), user.ID)
	if err != nil {
		h.t.Fatalf("load session: %v", err)
	}
	return s.State
}

func (h *harness) post(id int64) posts.Post {
	h.t.Helper()
	p, err := h.store.Get(context.Background(), id)
	if err != nil {
		h.t.Fatalf("get %d: %v", id, err)
	}
	return p
}

func (h *harness) seed(title string) posts.Post {
	h.t.Helper()
	p, err := h.store.Create(context.Background(), posts.Draft{Title: title, Text: "body", Author: "@author"})
	if err != nil {
		h.t.Fatalf("seed: %v", err)
	}
	return p
}

func idStr(p posts.Post) string { return strconv.FormatInt(p.ID, 10) }

func TestStrangerIsRejectedWithoutSession(t *testing.T) {
	h := newHarness(t, nil)
	kinds := []flow.Kind{
		flow.KindStart, flow.KindUpload, flow.KindList, flow.KindEdit,
		flow.KindDelete, flow.KindReview, flow.KindCancel, flow.KindText,
	}
	for _, k := range kinds {
		h.out.reset()
		h.cmd(stranger, k)
		if len(h.out.sent) != 1 || h.out.sent[0].Text != flow.English.Denied {
			t.Fatalf("%s: expected rejection message, got %+v", k, h.out.sent)
		}
	}
	if n := h.sessions.Len(); n != 0 {
		t.Fatalf("expected no sessions, got %d", n)
	}
}

func TestCreateWithoutPhoto(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd(operator, flow.KindUpload)
	if got := h.state(operator); got != flow.AwaitingTitle {
		t.Fatalf("state after upload = %s", got)
	}
	h.text(operator, "T")
	h.text(operator, "B")
	if got := h.state(operator); got != flow.AwaitingPhoto {
		t.Fatalf("state after text = %s", got)
	}
	h.cmd(operator, flow.KindSkip)

	p := h.post(1)
	if p.Title != "T" || p.Text != "B" || p.PhotoRef != nil || p.Status != posts.StatusPending || p.Author != "@op" {
		t.Fatalf("unexpected post: %+v", p)
	}
	if got := h.state(operator); got != flow.Idle {
		t.Fatalf("state after create = %s", got)
	}
	if !strings.Contains(h.out.last(), "#1") {
		t.Fatalf("expected confirmation, got %q", h.out.last())
	}
	if len(h.notes.texts) != 1 {
		t.Fatalf("expected reviewer notification, got %v", h.notes.texts)
	}
}

func TestCreateWithPhoto(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd(operator, flow.KindUpload)
	h.text(operator, "T")
	h.text(operator, "B")
	h.do(operator, flow.Event{Kind: flow.KindPhoto, PhotoID: "file-1"})

	p := h.post(1)
	if !p.HasPhoto() || *p.PhotoRef != "file-1" || p.Status != posts.StatusPending {
		t.Fatalf("unexpected post: %+v", p)
	}
}

func TestCreateRejectsOutOfBoundsTitle(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd(operator, flow.KindUpload)
	h.text(operator, "   ")
	if got := h.state(operator); got != flow.AwaitingTitle {
		t.Fatalf("blank title must repeat the step, state = %s", got)
	}
	h.text(operator, strings.Repeat("x", flow.MaxTitleRunes+1))
	if got := h.state(operator); got != flow.AwaitingTitle {
		t.Fatalf("long title must repeat the step, state = %s", got)
	}
	h.text(operator, strings.Repeat("é", flow.MaxTitleRunes))
	if got := h.state(operator); got != flow.AwaitingText {
		t.Fatalf("title at the bound must be accepted, state = %s", got)
	}
}

func TestUnmatchedInputReprompts(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd(operator, flow.KindUpload)
	h.text(operator, "T")
	h.text(operator, "B")
	h.out.reset()
	h.text(operator, "not a photo")
	if got := h.state(operator); got != flow.AwaitingPhoto {
		t.Fatalf("state = %s", got)
	}
	if h.out.last() != flow.English.RepromptPhoto {
		t.Fatalf("expected photo reprompt, got %q", h.out.last())
	}
}

func TestCancelDiscardsDraft(t *testing.T) {
	h := newHarness(t, nil)
	h.cmd(operator, flow.KindUpload)
	h.text(operator, "T")
	h.cmd(operator, flow.KindCancel)
	if got := h.state(operator); got != flow.Idle {
		t.Fatalf("state = %s", got)
	}
	if h.sessions.Len() != 0 {
		t.Fatal("expected cancelled session to be dropped")
	}
}

func TestEditResetsStatusAndKeepsAuthor(t *testing.T) {
	for _, st := range []posts.Status{posts.StatusApproved, posts.StatusRejected, posts.StatusNeedsEdit} {
		t.Run(string(st), func(t *testing.T) {
			h := newHarness(t, nil)
			ctx := context.Background()
			orig := h.seed("T")
			if err := h.store.SetStatus(ctx, orig.ID, posts.Review{Status: st, Reviewer: "@rev", Note: "n"}); err != nil {
				t.Fatalf("set status: %v", err)
			}

			h.cmd(operator, flow.KindEdit)
			h.press(operator, flow.KindPickEdit, idStr(orig))
			if got := h.state(operator); got != flow.AwaitingEditFieldChoice {
				t.Fatalf("state after pick = %s", got)
			}
			h.tap(operator, flow.ActField, string(posts.FieldText))
			h.text(operator, "B2")

			p := h.post(orig.ID)
			if p.Text != "B2" || p.Status != posts.StatusPending {
				t.Fatalf("unexpected post after edit: %+v", p)
			}
			if p.Author != orig.Author || !p.CreatedAt.Equal(orig.CreatedAt) {
				t.Fatalf("edit changed immutable fields: %+v vs %+v", p, orig)
			}
		})
	}
}

func TestEditPhotoFieldRejectsText(t *testing.T) {
	h := newHarness(t, nil)
	p := h.seed("T")
	h.press(operator, flow.KindPickEdit, idStr(p))
	h.tap(operator, flow.ActField, string(posts.FieldPhoto))
	h.text(operator, "some text")
	if got := h.state(operator); got != flow.AwaitingEditValue {
		t.Fatalf("state = %s", got)
	}
	h.do(operator, flow.Event{Kind: flow.KindPhoto, PhotoID: "file-2"})
	got := h.post(p.ID)
	if !got.HasPhoto() || *got.PhotoRef != "file-2" {
		t.Fatalf("photo not updated: %+v", got)
	}

	h.press(operator, flow.KindPickEdit, idStr(p))
	h.tap(operator, flow.ActField, string(posts.FieldPhoto))
	h.tap(operator, flow.ActSkip, "")
	if got := h.post(p.ID); got.HasPhoto() {
		t.Fatalf("photo not removed: %+v", got)
	}
}

func TestEditApprovedPostRetractsChannelCopy(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.seed("T")
	msgID := int64(77)
	_ = h.store.SetStatus(ctx, p.ID, posts.Review{Status: posts.StatusApproved, Reviewer: "@rev"})
	_ = h.store.SetChannelMessage(ctx, p.ID, &msgID)

	h.press(operator, flow.KindPickEdit, idStr(p))
	h.tap(operator, flow.ActField, string(posts.FieldTitle))
	h.text(operator, "New")

	if len(h.pub.retracted) != 1 || h.pub.retracted[0] != 77 {
		t.Fatalf("expected channel copy to be retracted, got %v", h.pub.retracted)
	}
	got := h.post(p.ID)
	if got.Title != "New" || got.ChannelMessageID != nil {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestDeleteMissingPostReportsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	h.seed("keep")
	h.press(operator, flow.KindPickDelete, "999")
	if h.out.last() != flow.English.NotFound {
		t.Fatalf("expected not found, got %q", h.out.last())
	}
	if got := h.state(operator); got != flow.Idle {
		t.Fatalf("state = %s", got)
	}
	list, _ := h.store.List(context.Background(), nil)
	if len(list) != 1 {
		t.Fatalf("rows changed: %+v", list)
	}
}

func TestDeleteRemovesExactlyOneRow(t *testing.T) {
	h := newHarness(t, nil)
	a, b, c := h.seed("a"), h.seed("b"), h.seed("c")

	h.cmd(operator, flow.KindDelete)
	h.press(operator, flow.KindPickDelete, idStr(b))
	if got := h.state(operator); got != flow.AwaitingDeleteConfirmation {
		t.Fatalf("state = %s", got)
	}
	h.tap(operator, flow.ActConfirm, "")

	list, _ := h.store.List(context.Background(), nil)
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Fatalf("unexpected remaining rows: %+v", list)
	}
}

func TestDeleteByTokenAndAbort(t *testing.T) {
	h := newHarness(t, nil)
	a, b := h.seed("a"), h.seed("b")

	h.press(operator, flow.KindPickDelete, idStr(a))
	h.text(operator, "no thanks")
	if _, err := h.store.Get(context.Background(), a.ID); err != nil {
		t.Fatalf("other input must abort: %v", err)
	}

	h.press(operator, flow.KindPickDelete, idStr(b))
	h.text(operator, " DELETE ")
	if _, err := h.store.Get(context.Background(), b.ID); !errors.Is(err, posts.ErrNotFound) {
		t.Fatalf("token must delete, got %v", err)
	}
}

func TestReviewRequiresConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	p := h.seed("T")

	h.cmd(reviewer, flow.KindReview)
	h.press(reviewer, flow.KindPickReview, idStr(p))
	h.press(reviewer, flow.KindReviewAction, "approved:"+idStr(p))
	if got := h.state(reviewer); got != flow.AwaitingReviewConfirmation {
		t.Fatalf("state = %s", got)
	}
	if got := h.post(p.ID); got.Status != posts.StatusPending {
		t.Fatalf("status changed before confirmation: %s", got.Status)
	}

	abort := h.button(flow.ActAbort, "")
	h.out.reset()
	h.pressButton(reviewer, abort)
	if got := h.post(p.ID); got.Status != posts.StatusPending || got.ReviewedBy != nil {
		t.Fatalf("abort changed the post: %+v", got)
	}
	if !strings.Contains(h.out.last(), "<b>T</b>") {
		t.Fatalf("expected detail view after abort, got %q", h.out.last())
	}

	h.press(reviewer, flow.KindReviewAction, "approved:"+idStr(p))
	h.tap(reviewer, flow.ActConfirm, "")
	got := h.post(p.ID)
	if got.Status != posts.StatusApproved || got.ReviewedBy == nil || *got.ReviewedBy != "@rev" {
		t.Fatalf("unexpected post after confirm: %+v", got)
	}
	if len(h.pub.published) != 1 || got.ChannelMessageID == nil || *got.ChannelMessageID != 500+p.ID {
		t.Fatalf("expected channel publish, got %v / %+v", h.pub.published, got.ChannelMessageID)
	}
}

func TestReviewNeedsEditCollectsNote(t *testing.T) {
	h := newHarness(t, nil)
	p := h.seed("T")

	h.press(reviewer, flow.KindReviewAction, "needs_edit:"+idStr(p))
	if got := h.state(reviewer); got != flow.AwaitingReviewNote {
		t.Fatalf("state = %s", got)
	}
	h.text(reviewer, "shorter please")
	if got := h.state(reviewer); got != flow.AwaitingReviewConfirmation {
		t.Fatalf("state = %s", got)
	}
	h.tap(reviewer, flow.ActConfirm, "")

	got := h.post(p.ID)
	if got.Status != posts.StatusNeedsEdit || got.ReviewNote == nil || *got.ReviewNote != "shorter please" {
		t.Fatalf("unexpected post: %+v", got)
	}
}

func TestOperatorCannotReview(t *testing.T) {
	h := newHarness(t, nil)
	p := h.seed("T")
	h.press(operator, flow.KindReviewAction, "approved:"+idStr(p))
	if len(h.out.answers) != 1 || h.out.answers[0] != flow.English.ReviewerOnly {
		t.Fatalf("expected reviewer-only toast, got %v", h.out.answers)
	}
	if h.sessions.Len() != 0 {
		t.Fatal("expected no session change")
	}
	if got := h.post(p.ID); got.Status != posts.StatusPending {
		t.Fatalf("status changed: %s", got.Status)
	}
}

func TestPersistenceFailureClearsSession(t *testing.T) {
	h := newHarness(t, func(s flow.Store) flow.Store {
		return failingStore{Store: s, err: errors.New("connection refused")}
	})
	h.cmd(operator, flow.KindUpload)
	h.text(operator, "T")
	h.text(operator, "B")
	h.cmd(operator, flow.KindSkip)

	if h.out.last() != flow.English.Failure {
		t.Fatalf("expected generic failure, got %q", h.out.last())
	}
	if h.sessions.Len() != 0 {
		t.Fatal("expected session to be cleared")
	}
}

func TestEditFallsBackToSend(t *testing.T) {
	h := newHarness(t, nil)
	h.out.editErr = errors.New("message can't be edited")
	h.press(operator, flow.KindStart, "")
	if len(h.out.sent) != 1 || h.out.sent[0].Text != flow.English.Menu {
		t.Fatalf("expected menu to be sent, got %+v", h.out.sent)
	}
}

func TestDeleteGoesAheadWhenRetractFails(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.seed("T")
	msgID := int64(9)
	_ = h.store.SetStatus(ctx, p.ID, posts.Review{Status: posts.StatusApproved, Reviewer: "@rev"})
	_ = h.store.SetChannelMessage(ctx, p.ID, &msgID)
	h.pub.failRetract = true

	h.press(operator, flow.KindPickDelete, idStr(p))
	h.tap(operator, flow.ActConfirm, "")

	if _, err := h.store.Get(ctx, p.ID); !errors.Is(err, posts.ErrNotFound) {
		t.Fatalf("post must be deleted, got %v", err)
	}
	if !strings.Contains(h.out.last(), flow.English.ChannelRetractFailed) {
		t.Fatalf("expected channel warning, got %q", h.out.last())
	}
}

func TestLeftoverConfirmDoesNotFinishAnotherFlow(t *testing.T) {
	h := newHarness(t, nil)
	a, b := h.seed("a"), h.seed("b")

	h.press(reviewer, flow.KindReviewAction, "approved:"+idStr(a))
	leftover := h.button(flow.ActConfirm, "")

	h.cmd(reviewer, flow.KindDelete)
	h.press(reviewer, flow.KindPickDelete, idStr(b))
	h.out.reset()
	h.pressButton(reviewer, leftover)

	if _, err := h.store.Get(context.Background(), b.ID); err != nil {
		t.Fatalf("review confirmation must not delete post %d: %v", b.ID, err)
	}
	if got := h.post(a.ID); got.Status != posts.StatusPending {
		t.Fatalf("post %d status = %s", a.ID, got.Status)
	}
	if got := h.state(reviewer); got != flow.AwaitingDeleteConfirmation {
		t.Fatalf("state = %s", got)
	}
	if len(h.out.answers) != 1 || len(h.out.log) != 0 {
		t.Fatalf("expected a toast only, got %v / %+v", h.out.answers, h.out.log)
	}

	h.cmd(reviewer, flow.KindDelete)
	h.press(reviewer, flow.KindPickDelete, idStr(a))
	h.press(reviewer, flow.KindPickDelete, idStr(b))
	stale := h.button(flow.ActConfirm, idStr(a))
	h.pressButton(reviewer, stale)
	if _, err := h.store.Get(context.Background(), a.ID); err != nil {
		t.Fatalf("confirm for post %d must not delete it while %d is picked: %v", a.ID, b.ID, err)
	}

	h.tap(reviewer, flow.ActConfirm, idStr(b))
	if _, err := h.store.Get(context.Background(), b.ID); !errors.Is(err, posts.ErrNotFound) {
		t.Fatalf("current confirmation must delete, got %v", err)
	}
}

func TestLeftoverFieldButtonIsIgnored(t *testing.T) {
	h := newHarness(t, nil)
	a, b := h.seed("a"), h.seed("b")

	h.press(operator, flow.KindPickEdit, idStr(a))
	leftover := h.button(flow.ActField, string(posts.FieldText))
	h.press(operator, flow.KindPickEdit, idStr(b))
	h.pressButton(operator, leftover)
	if got := h.state(operator); got != flow.AwaitingEditFieldChoice {
		t.Fatalf("state = %s", got)
	}

	h.tap(operator, flow.ActField, string(posts.FieldText))
	h.text(operator, "B2")
	if got := h.post(b.ID); got.Text != "B2" {
		t.Fatalf("post %d text = %q", b.ID, got.Text)
	}
	if got := h.post(a.ID); got.Text != "body" {
		t.Fatalf("post %d changed: %q", a.ID, got.Text)
	}
}

func TestCreateRejectsTakenTitle(t *testing.T) {
	h := newHarness(t, nil)
	h.seed("T")
	h.cmd(operator, flow.KindUpload)
	h.text(operator, " T ")
	if got := h.state(operator); got != flow.AwaitingTitle {
		t.Fatalf("state = %s", got)
	}
	if h.out.last() != flow.English.TitleTaken {
		t.Fatalf("expected title warning, got %q", h.out.last())
	}
	h.text(operator, "U")
	if got := h.state(operator); got != flow.AwaitingText {
		t.Fatalf("state = %s", got)
	}
}

func TestEditTitleRejectsTakenTitle(t *testing.T) {
	h := newHarness(t, nil)
	h.seed("a")
	b := h.seed("b")

	h.press(operator, flow.KindPickEdit, idStr(b))
	h.tap(operator, flow.ActField, string(posts.FieldTitle))
	h.text(operator, "a")
	if got := h.state(operator); got != flow.AwaitingEditValue {
		t.Fatalf("state = %s", got)
	}
	if got := h.post(b.ID); got.Title != "b" {
		t.Fatalf("title changed to %q", got.Title)
	}

	h.text(operator, "b")
	if got := h.state(operator); got != flow.Idle {
		t.Fatalf("keeping the own title must be accepted, state = %s", got)
	}
}
