package router

import (
	"time"

	tg "github.com/hiwwer/marketbot/core/telegram"
	"github.com/hiwwer/marketbot/core/telegram/callbacks"
	"github.com/hiwwer/marketbot/core/telegram/middleware"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackSink consumes decoded callback button presses.
type CallbackSink interface {
	HandleCallback(c tele.Context, key, payload string) error
}

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	NotFound tele.HandlerFunc
}

// CallbackRoute returns a handler that decodes callback data and forwards it
// to the conversation sink. Unknown or empty keys fall through to the
// registry fallback.
func CallbackRoute(sink CallbackSink, reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key, payload := callbacks.ParseCallbackData(c.Callback())
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		_ = c.Respond()

		if key == "" || sink == nil {
			fallback := opts.NotFound
			if reg != nil && reg.CallbackNotFound() != nil {
				fallback = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "", "", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		return handleWithSummary(c, name, start, "", "", func() error {
			return sink.HandleCallback(c, key, payload)
		}, extras...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}
