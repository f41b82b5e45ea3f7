package handlers

import (
	"context"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/session"
)

// Link binds the Telegram identity to an existing marketplace account using
// a one-time code from the user's profile page.
func (d Deps) Link(ctx context.Context, req flow.Request) flow.Result {
	code := req.Event.Args
	if code == "" {
		return flow.Result{
			Renders: []flow.Render{{Text: text(req.Session, "link_usage", nil)}},
			Next:    session.StateMainMenu,
			Mutate:  clearPending,
		}
	}

	res := d.GW.LinkAccount(ctx, code, req.TelegramID, req.Username, req.ChatID)
	if !res.OK() {
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(req.Session, "link_fail", nil),
				Markup: d.mainMenuMarkup(req.Session),
			}},
			Next:   session.StateMainMenu,
			Mutate: clearPending,
		}
	}

	user := res.Value
	linked := req.Session
	linked.Token = user.Token
	if i18n.Supported(user.Language) {
		linked.LanguageCode = user.Language
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(linked, "link_success", map[string]string{"name": user.Name}),
			Markup: d.mainMenuMarkup(linked),
		}},
		Next: session.StateMainMenu,
		Mutate: func(s *session.Session) {
			s.Token = user.Token
			s.UserID = user.ID
			s.Name = user.Name
			if i18n.Supported(user.Language) {
				s.LanguageCode = user.Language
			}
			s.Pending = session.Pending{}
		},
	}
}
