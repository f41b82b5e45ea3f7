package handlers

import (
	"context"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/session"
)

// LanguageSelect shows the language choices.
func (d Deps) LanguageSelect(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "choose_language", nil),
			Markup: languageMarkup(),
		}},
		Next:   session.StateLanguageSelect,
		Mutate: clearPending,
	}
}

// SetLanguage applies the chosen language locally and, when authenticated,
// persists it on the backend. A failed backend patch keeps the local choice.
func (d Deps) SetLanguage(ctx context.Context, req flow.Request) flow.Result {
	lang := req.Event.Payload
	if !i18n.Supported(lang) {
		lang = i18n.DefaultLanguage
	}

	if req.Session.Authenticated() {
		d.GW.UpdateLanguage(ctx, req.Session.Token, lang)
	}

	switched := req.Session
	switched.LanguageCode = lang
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(switched, "language_changed", nil),
			Markup: d.mainMenuMarkup(switched),
		}},
		Next: session.StateMainMenu,
		Mutate: func(s *session.Session) {
			s.LanguageCode = lang
			s.Pending = session.Pending{}
		},
	}
}
