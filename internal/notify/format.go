package notify

import (
	"github.com/hiwwer/marketbot/core/telegram/format"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/i18n"

	tele "gopkg.in/telebot.v4"
)

var typeEmoji = map[string]string{
	gateway.TypeMessage:      "💬",
	gateway.TypeNewOrder:     "🛒",
	gateway.TypeStatusChange: "🔄",
	gateway.TypeDeadline:     "⏰",
	gateway.TypePayment:      "💰",
	gateway.TypeReview:       "⭐",
	gateway.TypeDispute:      "⚠️",
}

const defaultEmoji = "🔔"

// Links holds the deep-link bases appended to formatted notifications.
type Links struct {
	// OrderBase prefixes order deep links; empty disables them.
	OrderBase string
	// Profile is the marketplace profile page; empty disables it.
	Profile string
}

func emojiFor(notificationType string) string {
	if e, ok := typeEmoji[notificationType]; ok {
		return e
	}
	return defaultEmoji
}

// formatNotification renders the outbound text and optional link keyboard
// for one notification in the destination user's language.
func formatNotification(n gateway.Notification, lang string, links Links) (string, *tele.ReplyMarkup) {
	text := emojiFor(n.Type) + " " + format.Escape(n.Content)

	var markup *tele.ReplyMarkup
	switch n.Type {
	case gateway.TypeReview, gateway.TypePayment:
		if links.Profile != "" {
			markup = linkMarkup(i18n.Text("notification_view_profile", lang, nil), links.Profile)
		}
	default:
		if n.RelatedID != "" && links.OrderBase != "" {
			markup = linkMarkup(i18n.Text("notification_view_order", lang, nil), links.OrderBase+"/"+n.RelatedID)
		}
	}
	return text, markup
}

func linkMarkup(label, url string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{
		InlineKeyboard: [][]tele.InlineButton{{{Text: label, URL: url}}},
	}
}
