package handlers

import (
	"context"
	"strconv"

	"github.com/hiwwer/marketbot/core/telegram/format"
	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/session"
)

// AssistantEnter switches to the assistant conversation.
func (d Deps) AssistantEnter(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "assistant_welcome", nil),
			Markup: backToMainMarkup(req.Session),
		}},
		Next:   session.StateAssistant,
		Mutate: clearPending,
	}
}

// AssistantAsk forwards free text to the assistant source. The session id is
// the Telegram user id.
func (d Deps) AssistantAsk(ctx context.Context, req flow.Request) flow.Result {
	sessionID := strconv.FormatInt(req.TelegramID, 10)
	reply, err := d.Assistant.Reply(ctx, req.Session.Token, sessionID, req.Event.Text)
	if err != nil || reply == "" {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "assistant_connect_fail", nil),
				Markup: backToMainMarkup(req.Session),
			}},
			Next: session.StateAssistant,
		}
	}

	return flow.Result{
		Renders: []flow.Render{{Text: format.Escape(reply)}},
		Next:    session.StateAssistant,
	}
}
