package handlers

import (
	"context"
	"time"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/session"
)

// OrderList fetches and shows the user's orders.
func (d Deps) OrderList(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	res := d.GW.Orders(ctx, req.Session.Token)
	if !res.OK() || len(res.Value) == 0 {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "no_orders", nil),
				Markup: d.mainMenuMarkup(req.Session),
			}},
			Next:   session.StateMainMenu,
			Mutate: clearPending,
		}
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   renderOrderList(req.Session, res.Value),
			Markup: orderListMarkup(req.Session, res.Value),
			Edit:   true,
		}},
		Next:   session.StateOrderList,
		Mutate: clearPending,
	}
}

// OrderDetail fetches and shows one order.
func (d Deps) OrderDetail(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	res := d.GW.OrderDetail(ctx, req.Session.Token, req.Event.Payload)
	if !res.OK() {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "order_not_found", nil),
				Markup: backToMainMarkup(req.Session),
			}},
			Next:   session.StateMainMenu,
			Mutate: clearPending,
		}
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   renderOrderDetail(req.Session, res.Value, time.Now()),
			Markup: orderDetailMarkup(req.Session, res.Value),
			Edit:   true,
		}},
		Next:   session.StateOrderDetail,
		Mutate: clearPending,
	}
}

// OrderStatus patches the order status and re-renders the detail screen.
func (d Deps) OrderStatus(ctx context.Context, req flow.Request) flow.Result {
	if !req.Session.Authenticated() {
		return d.authPrompt(req)
	}

	status := statusForAction(req.Event.Action)
	res := d.GW.UpdateOrderStatus(ctx, req.Session.Token, req.Event.Payload, status)
	if !res.OK() {
		return flow.Result{
			Renders: []flow.Render{{Text: text(req.Session, "order_status_fail", nil)}},
			Next:    session.StateOrderDetail,
		}
	}

	o := res.Value
	return flow.Result{
		Renders: []flow.Render{
			{Text: text(req.Session, "order_status_updated", map[string]string{
				"status": statusLabel(req.Session, o.Status),
			})},
			{
				Text:   renderOrderDetail(req.Session, o, time.Now()),
				Markup: orderDetailMarkup(req.Session, o),
			},
		},
		Next: session.StateOrderDetail,
	}
}

func statusForAction(a flow.Action) string {
	switch a {
	case flow.ActionStartOrder:
		return gateway.StatusInProgress
	case flow.ActionCompleteOrder:
		return gateway.StatusCompleted
	case flow.ActionRevisionOrder:
		return gateway.StatusRevision
	}
	return ""
}
