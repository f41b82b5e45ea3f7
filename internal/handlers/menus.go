package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/session"
)

// MainMenu renders the main menu without touching the backend.
func (d Deps) MainMenu(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "main_menu", nil),
			Markup: d.mainMenuMarkup(req.Session),
			Edit:   true,
		}},
		Next:   session.StateMainMenu,
		Mutate: clearPending,
	}
}

// Cancel aborts whatever was in progress and acknowledges it.
func (d Deps) Cancel(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "cancel_operation", nil),
			Markup: d.mainMenuMarkup(req.Session),
		}},
		Next:   session.StateMainMenu,
		Mutate: clearPending,
	}
}

// HelpCommand renders help without leaving the current state.
func (d Deps) HelpCommand(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{Text: text(req.Session, "help_command_text", nil)}},
	}
}

// HelpButton renders help as a main menu leaf.
func (d Deps) HelpButton(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "help_command_text", nil),
			Markup: backToMainMarkup(req.Session),
		}},
		Next: session.StateMainMenu,
	}
}

// About renders the about text as a main menu leaf.
func (d Deps) About(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "about_text", nil),
			Markup: backToMainMarkup(req.Session),
		}},
		Next: session.StateMainMenu,
	}
}

// CommandsMenu lists the available slash commands as a main menu leaf.
func (d Deps) CommandsMenu(_ context.Context, req flow.Request) flow.Result {
	var b strings.Builder
	b.WriteString(text(req.Session, "commands_intro", nil))
	b.WriteString("\n")
	for _, cmd := range []string{"start", "help", "language", "link", "cancel"} {
		fmt.Fprintf(&b, "\n/%s — %s", cmd, text(req.Session, cmd+"_command", nil))
	}
	return flow.Result{
		Renders: []flow.Render{{
			Text:   b.String(),
			Markup: backToMainMarkup(req.Session),
		}},
		Next: session.StateMainMenu,
	}
}

// TextRedirect handles free text that targets no conversation: the user gets
// a hint and lands on the main menu. No message is posted anywhere.
func (d Deps) TextRedirect(_ context.Context, req flow.Request) flow.Result {
	return flow.Result{
		Renders: []flow.Render{{
			Text:   text(req.Session, "no_conversation_hint", nil),
			Markup: d.mainMenuMarkup(req.Session),
		}},
		Next:   session.StateMainMenu,
		Mutate: clearPending,
	}
}
