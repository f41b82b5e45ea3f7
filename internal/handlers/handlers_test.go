package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/session"
)

type postedMessage struct {
	orderID string
	text    string
}

type fakeGateway struct {
	user        gateway.Result[gateway.User]
	orders      gateway.Result[[]gateway.Order]
	detail      gateway.Result[gateway.Order]
	messages    gateway.Result[[]gateway.Message]
	ordersCalls int
	posted      []postedMessage
	patches     []string
}

func (f *fakeGateway) UserByTelegramID(context.Context, int64) gateway.Result[gateway.User] {
	return f.user
}

func (f *fakeGateway) Orders(context.Context, string) gateway.Result[[]gateway.Order] {
	f.ordersCalls++
	return f.orders
}

func (f *fakeGateway) OrderDetail(_ context.Context, _ string, orderID string) gateway.Result[gateway.Order] {
	return f.detail
}

func (f *fakeGateway) Messages(context.Context, string, string) gateway.Result[[]gateway.Message] {
	return f.messages
}

func (f *fakeGateway) PostMessage(_ context.Context, _ string, orderID, body string) gateway.Result[gateway.Message] {
	f.posted = append(f.posted, postedMessage{orderID: orderID, text: body})
	return gateway.Result[gateway.Message]{Status: gateway.StatusOK}
}

func (f *fakeGateway) UpdateOrderStatus(_ context.Context, _ string, orderID, status string) gateway.Result[gateway.Order] {
	f.patches = append(f.patches, orderID+":"+status)
	o := f.detail.Value
	o.Status = status
	return gateway.Result[gateway.Order]{Value: o, Status: gateway.StatusOK}
}

func (f *fakeGateway) UpdateLanguage(context.Context, string, string) gateway.Result[gateway.Ack] {
	return gateway.Result[gateway.Ack]{Status: gateway.StatusOK}
}

func (f *fakeGateway) LinkAccount(context.Context, string, int64, string, int64) gateway.Result[gateway.User] {
	return f.user
}

type fakeAssistant struct {
	replies int
}

func (f *fakeAssistant) Reply(context.Context, string, string, string) (string, error) {
	f.replies++
	return "assistant says hi", nil
}

func newTestDispatcher(gw *fakeGateway) (*flow.Dispatcher, *session.Store) {
	deps := Deps{GW: gw, Assistant: &fakeAssistant{}}
	store := session.NewStore()
	return flow.NewDispatcher(store, deps.Rules()), store
}

func authenticate(store *session.Store, chatID int64, state session.State) {
	store.Update(chatID, func(s *session.Session) {
		s.Token = "tok"
		s.UserID = "u-1"
		s.State = state
	})
}

func dispatch(d *flow.Dispatcher, chatID int64, ev flow.Event) flow.Result {
	return d.Dispatch(context.Background(), chatID, chatID, "tester", ev)
}

func mustButton(t *testing.T, key, payload string) flow.Event {
	t.Helper()
	ev, ok := flow.ButtonEvent(key, payload)
	if !ok {
		t.Fatalf("button event %q rejected", key)
	}
	return ev
}

func TestUnauthenticatedMyOrdersMakesNoCall(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)

	dispatch(d, 1, mustButton(t, "my_orders", ""))

	if gw.ordersCalls != 0 {
		t.Fatalf("orders called %d times for unauthenticated session", gw.ordersCalls)
	}
	if got := store.Get(1).State; got != session.StateMainMenu {
		t.Fatalf("state = %q, want main_menu", got)
	}
}

func TestSendMessageScenario(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateChatView)
	store.Update(1, func(s *session.Session) {
		s.Pending.CurrentChatOrderID = "O1"
	})

	dispatch(d, 1, mustButton(t, "send_msg", "O1"))
	if got := store.Get(1).Pending.MessageForOrder; got != "O1" {
		t.Fatalf("pending target = %q, want O1", got)
	}

	dispatch(d, 1, flow.TextEvent("hello"))

	if len(gw.posted) != 1 {
		t.Fatalf("postMessage called %d times, want 1", len(gw.posted))
	}
	if gw.posted[0] != (postedMessage{orderID: "O1", text: "hello"}) {
		t.Fatalf("posted = %+v", gw.posted[0])
	}
	s := store.Get(1)
	if s.State != session.StateChatView {
		t.Fatalf("state = %q, want chat_view", s.State)
	}
	if s.Pending.MessageForOrder != "" {
		t.Fatal("pending target not cleared after send")
	}
}

func TestFreeTextWithoutTargetRedirects(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateOrderList)

	dispatch(d, 1, flow.TextEvent("stray text"))

	if len(gw.posted) != 0 {
		t.Fatalf("postMessage called %d times, want 0", len(gw.posted))
	}
	if got := store.Get(1).State; got != session.StateMainMenu {
		t.Fatalf("state = %q, want main_menu", got)
	}
}

func TestUnmatchedEventDropped(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateMainMenu)

	// set_lang is only wired in language_select.
	res := dispatch(d, 1, mustButton(t, "set_lang", "uk"))

	if len(res.Renders) != 0 {
		t.Fatalf("dropped event produced %d renders", len(res.Renders))
	}
	if got := store.Get(1).State; got != session.StateMainMenu {
		t.Fatalf("state changed to %q on dropped event", got)
	}
}

func TestBackToMainIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateChatView)
	store.Update(1, func(s *session.Session) {
		s.Pending = session.Pending{MessageForOrder: "O1", CurrentChatOrderID: "O1"}
	})

	dispatch(d, 1, mustButton(t, "back_to_main", ""))
	first := store.Get(1)
	dispatch(d, 1, mustButton(t, "back_to_main", ""))
	second := store.Get(1)

	if first.State != session.StateMainMenu || second.State != session.StateMainMenu {
		t.Fatalf("states = %q then %q, want main_menu both", first.State, second.State)
	}
	if !first.Pending.Empty() || !second.Pending.Empty() {
		t.Fatal("pending must be empty after back_to_main")
	}
}

func TestCancelClearsPendingFromAnyState(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateChatView)
	store.Update(1, func(s *session.Session) {
		s.Pending.MessageForOrder = "O1"
	})

	dispatch(d, 1, flow.CommandEvent("cancel", ""))

	s := store.Get(1)
	if s.State != session.StateMainMenu || !s.Pending.Empty() {
		t.Fatalf("after /cancel: state=%q pending=%+v", s.State, s.Pending)
	}
}

func TestOrderBrowsingTransitions(t *testing.T) {
	orders := []gateway.Order{
		{ID: "O1", Title: "Logo", Status: gateway.StatusInProgress, IsPerformer: true},
	}
	gw := &fakeGateway{
		orders: gateway.Result[[]gateway.Order]{Value: orders, Status: gateway.StatusOK},
		detail: gateway.Result[gateway.Order]{Value: orders[0], Status: gateway.StatusOK},
	}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateMainMenu)

	dispatch(d, 1, mustButton(t, "my_orders", ""))
	if got := store.Get(1).State; got != session.StateOrderList {
		t.Fatalf("after my_orders: state = %q", got)
	}

	dispatch(d, 1, mustButton(t, "order", "O1"))
	if got := store.Get(1).State; got != session.StateOrderDetail {
		t.Fatalf("after order select: state = %q", got)
	}

	dispatch(d, 1, mustButton(t, "complete", "O1"))
	if len(gw.patches) != 1 || gw.patches[0] != "O1:"+gateway.StatusCompleted {
		t.Fatalf("patches = %v", gw.patches)
	}
	if got := store.Get(1).State; got != session.StateOrderDetail {
		t.Fatalf("after status action: state = %q", got)
	}
}

func TestEmptyOrderListReturnsToMainMenu(t *testing.T) {
	gw := &fakeGateway{
		orders: gateway.Result[[]gateway.Order]{Status: gateway.StatusOK},
	}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateMainMenu)

	dispatch(d, 1, mustButton(t, "my_orders", ""))

	if got := store.Get(1).State; got != session.StateMainMenu {
		t.Fatalf("empty order list: state = %q, want main_menu", got)
	}
}

func TestAssistantFlow(t *testing.T) {
	gw := &fakeGateway{}
	assist := &fakeAssistant{}
	deps := Deps{GW: gw, Assistant: assist}
	store := session.NewStore()
	d := flow.NewDispatcher(store, deps.Rules())
	authenticate(store, 1, session.StateMainMenu)

	dispatch(d, 1, mustButton(t, "assistant", ""))
	if got := store.Get(1).State; got != session.StateAssistant {
		t.Fatalf("after assistant button: state = %q", got)
	}

	dispatch(d, 1, flow.TextEvent("what are my orders?"))
	if assist.replies != 1 {
		t.Fatalf("assistant replies = %d, want 1", assist.replies)
	}
	if got := store.Get(1).State; got != session.StateAssistant {
		t.Fatalf("assistant must stay in assistant, got %q", got)
	}
}

func TestLanguageChange(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateChatList)

	dispatch(d, 1, flow.CommandEvent("language", ""))
	if got := store.Get(1).State; got != session.StateLanguageSelect {
		t.Fatalf("after /language: state = %q", got)
	}

	dispatch(d, 1, mustButton(t, "set_lang", "uk"))
	s := store.Get(1)
	if s.State != session.StateMainMenu {
		t.Fatalf("after set_lang: state = %q", s.State)
	}
	if s.LanguageCode != "uk" {
		t.Fatalf("language = %q, want uk", s.LanguageCode)
	}
}

func TestHelpCommandKeepsState(t *testing.T) {
	gw := &fakeGateway{}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateOrderDetail)

	dispatch(d, 1, flow.CommandEvent("help", ""))

	if got := store.Get(1).State; got != session.StateOrderDetail {
		t.Fatalf("/help changed state to %q", got)
	}
}

func TestStartPopulatesToken(t *testing.T) {
	gw := &fakeGateway{
		user: gateway.Result[gateway.User]{
			Value:  gateway.User{ID: "u-1", Token: "tok-9", Name: "Olena", Language: "uk"},
			Status: gateway.StatusOK,
		},
	}
	d, store := newTestDispatcher(gw)

	dispatch(d, 1, flow.CommandEvent("start", ""))

	s := store.Get(1)
	if s.Token != "tok-9" || s.UserID != "u-1" {
		t.Fatalf("session after /start: %+v", s)
	}
	if s.LanguageCode != "uk" {
		t.Fatalf("language = %q, want uk", s.LanguageCode)
	}
	if s.State != session.StateMainMenu {
		t.Fatalf("state = %q, want main_menu", s.State)
	}
}

func TestStartUnknownUserClearsToken(t *testing.T) {
	gw := &fakeGateway{
		user: gateway.Result[gateway.User]{Status: gateway.StatusHTTP, Code: 404, Err: fmt.Errorf("not found")},
	}
	d, store := newTestDispatcher(gw)
	authenticate(store, 1, session.StateMainMenu)

	dispatch(d, 1, flow.CommandEvent("start", ""))

	if store.Get(1).Authenticated() {
		t.Fatal("stale token survived a failed /start identify")
	}
}
