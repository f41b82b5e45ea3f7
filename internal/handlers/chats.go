package handlers

import (
	"context"

	"github.com/hiwwer/marketbot/core/telegram/keyboard"
	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/session"
)

// ChatList derives the conversation list from the user's orders.
func (d Deps) ChatList(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	res := d.GW.Orders(ctx, req.Session.Token)
	if !res.OK() || len(res.Value) == 0 {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "no_chats", nil),
				Markup: d.mainMenuMarkup(req.Session),
			}},
			Next:   session.StateMainMenu,
			Mutate: clearPending,
		}
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "your_conversations", nil),
			Markup: chatListMarkup(req.Session, res.Value),
			Edit:   true,
		}},
		Next:   session.StateChatList,
		Mutate: clearPending,
	}
}

// ChatView opens the chat thread of an order and remembers it as current.
func (d Deps) ChatView(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	orderID := req.Event.Payload
	order := d.GW.OrderDetail(ctx, req.Session.Token, orderID)
	if !order.OK() {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "order_not_found", nil),
				Markup: backToMainMarkup(req.Session),
			}},
			Next:   session.StateMainMenu,
			Mutate: clearPending,
		}
	}

	var history []gateway.Message
	if msgs := d.GW.Messages(ctx, req.Session.Token, orderID); msgs.OK() {
		history = msgs.Value
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   renderChatHistory(req.Session, order.Value.Title, history),
			Markup: chatViewMarkup(req.Session, orderID),
			Edit:   true,
		}},
		Next: session.StateChatView,
		Mutate: func(s *session.Session) {
			s.Pending = session.Pending{CurrentChatOrderID: orderID}
		},
	}
}

// SendMessagePrompt arms the pending free-text target.
func (d Deps) SendMessagePrompt(_ context.Context, req flow.Request) flow.Result {
	orderID := req.Event.Payload
	if orderID == "" {
		orderID = req.Session.Pending.CurrentChatOrderID
	}
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "send_message_prompt", nil),
			Markup: keyboard.SingleCancelMarkup(string(flow.ActionChat), orderID, text(req.Session, "cancel_button", nil)),
		}},
		Next: session.StateChatView,
		Mutate: func(s *session.Session) {
			s.Pending.MessageForOrder = orderID
		},
	}
}

// SendPendingMessage posts the free-text body to the armed order and clears
// the pending target. The chat stays open.
func (d Deps) SendPendingMessage(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	orderID := req.Session.Pending.MessageForOrder
	res := d.GW.PostMessage(ctx, req.Session.Token, orderID, req.Event.Text)

	key := "message_sent_success"
	if !res.OK() {
		key = "message_sent_fail"
	}
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, key, nil),
			Markup: chatViewMarkup(req.Session, orderID),
		}},
		Next: session.StateChatView,
		Mutate: func(s *session.Session) {
			s.Pending.MessageForOrder = ""
		},
	}
}
