package handlers

import (
	"context"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/session"
)

// Start identifies the user by Telegram id and lands on the main menu. An
// unknown identity clears any stale token and shows the register prompt.
func (d Deps) Start(ctx context.Context, req flow.Request) flow.Result {
	res := d.GW.UserByTelegramID(ctx, req.TelegramID)
	if !res.OK() {
		cleared := req.Session
		cleared.Token = ""
		return flow.Result{
			Renders: []flow.Render{{
				Text:   text(cleared, "register_prompt", nil),
				Markup: d.mainMenuMarkup(cleared),
			}},
			Next: session.StateMainMenu,
			Mutate: func(s *session.Session) {
				s.Token = ""
				s.UserID = ""
				s.Pending = session.Pending{}
			},
		}
	}

	user := res.Value
	updated := req.Session
	updated.Token = user.Token
	if i18n.Supported(user.Language) {
		updated.LanguageCode = user.Language
	}
	name := user.Name
	if name == "" {
		name = req.Username
	}

	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(updated, "welcome_back", map[string]string{"name": name}),
			Markup: d.mainMenuMarkup(updated),
		}},
		Next: session.StateMainMenu,
		Mutate: func(s *session.Session) {
			s.Token = user.Token
			s.UserID = user.ID
			s.Name = name
			if i18n.Supported(user.Language) {
				s.LanguageCode = user.Language
			}
			s.Pending = session.Pending{}
		},
	}
}

// authPrompt is the shared unauthenticated fallback: no gateway call is made.
func (d Deps) authPrompt(req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "auth_error", nil),
			Markup: d.mainMenuMarkup(req.Session),
		}},
		Next:   session.StateMainMenu,
		Mutate: clearPending,
	}
}

func clearPending(s *session.Session) {
	s.Pending = session.Pending{}
}
