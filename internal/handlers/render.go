package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/hiwwer/marketbot/core/telegram/format"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/session"
)

const (
	deadlineLayout = "02.01.2006 15:04"
	// historyLimit bounds how many recent messages a chat view shows.
	historyLimit = 10
	// deadlineSoon is the window for the approaching-deadline warning.
	deadlineSoon = 24 * time.Hour
)

func statusLabel(s session.Session, status string) string {
	key := "status_" + status
	if label := text(s, key, nil); label != key {
		return label
	}
	return status
}

func orderButtonLabel(o gateway.Order) string {
	title := o.Title
	if title == "" {
		title = o.ServiceName
	}
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:40]) + "…"
	}
	return fmt.Sprintf("%s · %s", title, o.Status)
}

func renderOrderList(s session.Session, orders []gateway.Order) string {
	var b strings.Builder
	b.WriteString(text(s, "your_orders", nil))
	b.WriteString("\n")
	for i, o := range orders {
		fmt.Fprintf(&b, "\n%d. *%s* — %s", i+1, format.Escape(o.Title), statusLabel(s, o.Status))
	}
	return b.String()
}

func renderOrderDetail(s session.Session, o gateway.Order, now time.Time) string {
	var b strings.Builder
	b.WriteString(text(s, "order_details_title", map[string]string{"title": format.Escape(o.Title)}))
	b.WriteString("\n\n")
	if o.ServiceName != "" {
		b.WriteString(text(s, "order_service", map[string]string{"service": format.Escape(o.ServiceName)}))
		b.WriteString("\n")
	}
	b.WriteString(text(s, "order_status", map[string]string{"status": statusLabel(s, o.Status)}))
	b.WriteString("\n")

	if o.Deadline != nil {
		formatted := o.Deadline.Format(deadlineLayout)
		b.WriteString(text(s, "order_deadline", map[string]string{"deadline": formatted}))
		b.WriteString("\n")
		if warn := deadlineWarning(s, *o.Deadline, now, o.Status); warn != "" {
			b.WriteString(warn)
			b.WriteString("\n")
		}
	}

	if o.IsPerformer {
		b.WriteString(text(s, "order_client", map[string]string{"name": format.Escape(o.Client.Name)}))
	} else {
		b.WriteString(text(s, "order_performer", map[string]string{"name": format.Escape(o.Performer.Name)}))
	}
	return b.String()
}

// deadlineWarning returns a warning line for open orders close to or past
// their deadline, empty otherwise.
func deadlineWarning(s session.Session, deadline, now time.Time, status string) string {
	if status == gateway.StatusCompleted {
		return ""
	}
	formatted := deadline.Format(deadlineLayout)
	switch {
	case now.After(deadline):
		return text(s, "deadline_passed", map[string]string{"deadline": formatted})
	case deadline.Sub(now) <= deadlineSoon:
		return text(s, "deadline_approaching", map[string]string{"deadline": formatted})
	}
	return ""
}

func renderChatHistory(s session.Session, title string, msgs []gateway.Message) string {
	var b strings.Builder
	b.WriteString(text(s, "chat_title", map[string]string{"title": format.Escape(title)}))
	b.WriteString("\n")

	if len(msgs) == 0 {
		b.WriteString("\n")
		b.WriteString(text(s, "no_messages", nil))
		return b.String()
	}

	start := 0
	if len(msgs) > historyLimit {
		start = len(msgs) - historyLimit
	}
	for _, m := range msgs[start:] {
		stamp := m.CreatedAt.Format("15:04")
		fmt.Fprintf(&b, "\n*%s* (%s):\n%s\n", format.Escape(m.SenderName), stamp, format.Escape(m.Text))
	}
	return b.String()
}
