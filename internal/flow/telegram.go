package flow

import (
	"strings"

	"github.com/hiwwer/marketbot/core/logger"
	tghelpers "github.com/hiwwer/marketbot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Bind adapts the dispatcher to the Telegram routers: callbacks and free
// text become decoded events, and renders go out through the async sender.
type Bind struct {
	D *Dispatcher
}

// HandleCallback implements the callback sink.
func (b Bind) HandleCallback(c tele.Context, key, payload string) error {
	ev, ok := ButtonEvent(key, payload)
	if !ok {
		logger.FLOW.Warn("unknown callback key",
			slog.String("event", "flow.unknown_callback"),
			slog.String("cb_key", logger.SanitizeLimit(key, 64)),
		)
		return nil
	}
	return b.dispatch(c, ev)
}

// HandleText implements the text sink.
func (b Bind) HandleText(c tele.Context, text string) error {
	return b.dispatch(c, TextEvent(text))
}

// Command returns a tele handler that feeds the named slash command into the
// dispatcher, with the remainder of the message as arguments.
func (b Bind) Command(name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		args := ""
		if msg := c.Message(); msg != nil {
			args = strings.TrimSpace(msg.Payload)
		}
		return b.dispatch(c, CommandEvent(name, args))
	}
}

func (b Bind) dispatch(c tele.Context, ev Event) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}

	ctx := tghelpers.BuildContext(c)
	res := b.D.Dispatch(ctx, chat.ID, sender.ID, sender.Username, ev)

	var firstErr error
	for _, r := range res.Renders {
		if r.Text == "" {
			continue
		}
		var err error
		if r.Edit {
			err = tghelpers.EditOrSendMD(c, r.Text, r.Markup)
		} else {
			err = tghelpers.SendMD(c, r.Text, r.Markup)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
