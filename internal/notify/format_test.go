package notify

import (
	"strings"
	"testing"

	"github.com/hiwwer/marketbot/internal/gateway"
)

func TestEmojiSelectionPerType(t *testing.T) {
	cases := []struct {
		typ   string
		emoji string
	}{
		{gateway.TypeMessage, "💬"},
		{gateway.TypeNewOrder, "🛒"},
		{gateway.TypeStatusChange, "🔄"},
		{gateway.TypeDeadline, "⏰"},
		{gateway.TypePayment, "💰"},
		{gateway.TypeReview, "⭐"},
		{gateway.TypeDispute, "⚠️"},
		{"something_else", "🔔"},
	}
	for _, tc := range cases {
		text, _ := formatNotification(gateway.Notification{Type: tc.typ, Content: "hi"}, "en", Links{})
		if !strings.HasPrefix(text, tc.emoji) {
			t.Fatalf("type %q: text %q does not start with %q", tc.typ, text, tc.emoji)
		}
	}
}

func TestOrderLinkAttachedForOrderTypes(t *testing.T) {
	links := Links{OrderBase: "https://market.example/orders", Profile: "https://market.example/profile"}

	n := gateway.Notification{Type: gateway.TypeStatusChange, Content: "status", RelatedID: "O9"}
	_, markup := formatNotification(n, "en", links)
	if markup == nil {
		t.Fatal("order notification must carry a link keyboard")
	}
	url := markup.InlineKeyboard[0][0].URL
	if url != "https://market.example/orders/O9" {
		t.Fatalf("order link = %q", url)
	}
}

func TestProfileLinkForReview(t *testing.T) {
	links := Links{Profile: "https://market.example/profile"}
	_, markup := formatNotification(gateway.Notification{Type: gateway.TypeReview, Content: "5 stars"}, "uk", links)
	if markup == nil || markup.InlineKeyboard[0][0].URL != links.Profile {
		t.Fatalf("review notification must link to the profile, got %+v", markup)
	}
}

func TestNoLinksWhenUnconfigured(t *testing.T) {
	n := gateway.Notification{Type: gateway.TypeNewOrder, Content: "new", RelatedID: "O1"}
	if _, markup := formatNotification(n, "en", Links{}); markup != nil {
		t.Fatalf("no link bases configured, markup = %+v", markup)
	}
}

func TestContentEscapedForMarkdown(t *testing.T) {
	n := gateway.Notification{Type: gateway.TypeMessage, Content: "price_update *urgent*"}
	text, _ := formatNotification(n, "en", Links{})
	if !strings.Contains(text, `\_`) || !strings.Contains(text, `\*`) {
		t.Fatalf("markdown specials not escaped: %q", text)
	}
}
