package handlers

import (
	"context"

	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/session"
)

// Gateway is the slice of the backend client the conversation handlers use.
type Gateway interface {
	UserByTelegramID(ctx context.Context, telegramID int64) gateway.Result[gateway.User]
	Orders(ctx context.Context, token string) gateway.Result[[]gateway.Order]
	OrderDetail(ctx context.Context, token, orderID string) gateway.Result[gateway.Order]
	Messages(ctx context.Context, token, orderID string) gateway.Result[[]gateway.Message]
	PostMessage(ctx context.Context, token, orderID, text string) gateway.Result[gateway.Message]
	UpdateOrderStatus(ctx context.Context, token, orderID, status string) gateway.Result[gateway.Order]
	UpdateLanguage(ctx context.Context, token, lang string) gateway.Result[gateway.Ack]
	LinkAccount(ctx context.Context, code string, telegramID int64, username string, chatID int64) gateway.Result[gateway.User]
}

// AssistantSource produces assistant replies.
type AssistantSource interface {
	Reply(ctx context.Context, token, sessionID, prompt string) (string, error)
}

// Deps wires the collaborators the handler set needs.
type Deps struct {
	GW        Gateway
	Assistant AssistantSource
	// WebAppURL opens the marketplace web app from the main menu; empty hides the button.
	WebAppURL string
}

func text(s session.Session, key string, params map[string]string) string {
	return i18n.Text(key, s.LanguageCode, params)
}
