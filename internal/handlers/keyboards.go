package handlers

import (
	"github.com/hiwwer/marketbot/core/telegram/keyboard"
	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func dataButton(markup *tele.ReplyMarkup, label string, action flow.Action, payload string) tele.InlineButton {
	return *markup.Data(label, string(action), payload).Inline()
}

func urlButton(label, url string) tele.InlineButton {
	return tele.InlineButton{Text: label, URL: url}
}

func (d Deps) mainMenuMarkup(s session.Session) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton

	if s.Authenticated() {
		if d.WebAppURL != "" {
			rows = append(rows, []tele.InlineButton{urlButton(text(s, "open_marketplace", nil), d.WebAppURL)})
		}
		rows = append(rows,
			[]tele.InlineButton{
				dataButton(markup, text(s, "my_orders", nil), flow.ActionMyOrders, ""),
				dataButton(markup, text(s, "messages", nil), flow.ActionMessages, ""),
			},
			[]tele.InlineButton{
				dataButton(markup, text(s, "assistant", nil), flow.ActionAssistant, ""),
				dataButton(markup, text(s, "change_language", nil), flow.ActionChangeLanguage, ""),
			},
			[]tele.InlineButton{
				dataButton(markup, text(s, "help_button", nil), flow.ActionHelp, ""),
				dataButton(markup, text(s, "about_bot", nil), flow.ActionAbout, ""),
				dataButton(markup, text(s, "commands_menu", nil), flow.ActionCommandsMenu, ""),
			},
		)
	} else {
		if d.WebAppURL != "" {
			rows = append(rows, []tele.InlineButton{urlButton(text(s, "register_button", nil), d.WebAppURL)})
		}
		rows = append(rows, []tele.InlineButton{
			dataButton(markup, text(s, "change_language", nil), flow.ActionChangeLanguage, ""),
		})
	}

	markup.InlineKeyboard = rows
	return markup
}

func orderListMarkup(s session.Session, orders []gateway.Order) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton
	for _, o := range orders {
		rows = append(rows, []tele.InlineButton{
			dataButton(markup, orderButtonLabel(o), flow.ActionOrder, o.ID),
		})
	}
	rows = append(rows, []tele.InlineButton{
		dataButton(markup, text(s, "back_to_main_menu_button", nil), flow.ActionBackToMain, ""),
	})
	markup.InlineKeyboard = rows
	return markup
}

func orderDetailMarkup(s session.Session, o gateway.Order) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton

	rows = append(rows, []tele.InlineButton{
		dataButton(markup, text(s, "chat_with_button", nil), flow.ActionChat, o.ID),
	})

	// Status actions depend on the caller's role and the current status.
	if o.IsPerformer {
		switch o.Status {
		case gateway.StatusRevision:
			rows = append(rows, []tele.InlineButton{
				dataButton(markup, text(s, "start_working_button", nil), flow.ActionStartOrder, o.ID),
			})
		case gateway.StatusInProgress:
			rows = append(rows, []tele.InlineButton{
				dataButton(markup, text(s, "complete_order_button", nil), flow.ActionCompleteOrder, o.ID),
			})
		default:
			rows = append(rows, []tele.InlineButton{
				dataButton(markup, text(s, "start_working_button", nil), flow.ActionStartOrder, o.ID),
			})
		}
	} else if o.Status == gateway.StatusCompleted {
		rows = append(rows, []tele.InlineButton{
			dataButton(markup, text(s, "request_revision_button", nil), flow.ActionRevisionOrder, o.ID),
		})
	}

	rows = append(rows, []tele.InlineButton{
		dataButton(markup, text(s, "back_to_orders_button", nil), flow.ActionMyOrders, ""),
		dataButton(markup, text(s, "back_to_main_menu_button", nil), flow.ActionBackToMain, ""),
	})
	markup.InlineKeyboard = rows
	return markup
}

func chatListMarkup(s session.Session, orders []gateway.Order) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows [][]tele.InlineButton
	for _, o := range orders {
		rows = append(rows, []tele.InlineButton{
			dataButton(markup, orderButtonLabel(o), flow.ActionChat, o.ID),
		})
	}
	rows = append(rows, []tele.InlineButton{
		dataButton(markup, text(s, "back_to_main_menu_button", nil), flow.ActionBackToMain, ""),
	})
	markup.InlineKeyboard = rows
	return markup
}

func chatViewMarkup(s session.Session, orderID string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{
		{
			dataButton(markup, text(s, "send_message_button", nil), flow.ActionSendMessage, orderID),
			dataButton(markup, text(s, "refresh_chat_button", nil), flow.ActionChat, orderID),
		},
		{
			dataButton(markup, text(s, "view_order_button", nil), flow.ActionOrder, orderID),
		},
		{
			dataButton(markup, text(s, "back_to_chats_button", nil), flow.ActionMessages, ""),
			dataButton(markup, text(s, "back_to_main_menu_button", nil), flow.ActionBackToMain, ""),
		},
	}
	return markup
}

func languageMarkup() *tele.ReplyMarkup {
	labels := map[string]string{"en": "🇬🇧 English", "uk": "🇺🇦 Українська"}
	var buttons []keyboard.InlineBtn
	for _, lang := range []string{"en", "uk"} {
		if !i18n.Supported(lang) {
			continue
		}
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   labels[lang],
			Unique: string(flow.ActionSetLanguage),
			Data:   lang,
		})
	}
	return keyboard.InlineButtonsNPerRow(buttons, 2)
}

func backToMainMarkup(s session.Session) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = [][]tele.InlineButton{{
		dataButton(markup, text(s, "back_to_main_menu_button", nil), flow.ActionBackToMain, ""),
	}}
	return markup
}
