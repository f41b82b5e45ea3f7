package router

import (
	"time"

	tg "github.com/hiwwer/marketbot/core/telegram"
	"github.com/hiwwer/marketbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextSink consumes free-form text that does not match a registered command.
type TextSink interface {
	HandleText(c tele.Context, text string) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing. Text that looks
// like a registered command runs that command; everything else goes to the
// conversation sink.
func TextRoutes(sink TextSink, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if sink != nil {
			return handleWithSummary(c, "text", start, "", "", func() error {
				return sink.HandleText(c, text)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
