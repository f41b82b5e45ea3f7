package handlers

import (
	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/session"
)

func command(name string) func(flow.Event, session.Session) bool {
	return func(ev flow.Event, _ session.Session) bool { return ev.IsCommand(name) }
}

func button(a flow.Action) func(flow.Event, session.Session) bool {
	return func(ev flow.Event, _ session.Session) bool { return ev.IsButton(a) }
}

func anyOf(matchers ...func(flow.Event, session.Session) bool) func(flow.Event, session.Session) bool {
	return func(ev flow.Event, s session.Session) bool {
		for _, m := range matchers {
			if m(ev, s) {
				return true
			}
		}
		return false
	}
}

func freeText(ev flow.Event, _ session.Session) bool {
	return ev.Kind == flow.KindText
}

// Rules builds the transition table. Ordering is significant: the dispatcher
// commits the first row whose matcher accepts the event and whose state set
// contains the session's current state.
func (d Deps) Rules() []flow.Rule {
	return []flow.Rule{
		{Name: "start", Match: command("start"), Handler: d.Start},
		{Name: "cancel", Match: command("cancel"), Handler: d.Cancel},
		{Name: "help", Match: command("help"), Handler: d.HelpCommand},
		{Name: "link", Match: command("link"), Handler: d.Link},
		{Name: "language", Match: anyOf(command("language"), button(flow.ActionChangeLanguage)), Handler: d.LanguageSelect},
		{Name: "back_to_main", Match: button(flow.ActionBackToMain), Handler: d.MainMenu},

		{
			Name:    "order_list",
			States:  []session.State{session.StateMainMenu, session.StateOrderList, session.StateOrderDetail},
			Match:   button(flow.ActionMyOrders),
			Handler: d.OrderList,
		},
		{
			Name:    "order_detail",
			States:  []session.State{session.StateOrderList, session.StateOrderDetail, session.StateChatView},
			Match:   button(flow.ActionOrder),
			Handler: d.OrderDetail,
		},
		{
			Name:   "order_status",
			States: []session.State{session.StateOrderDetail},
			Match: anyOf(
				button(flow.ActionStartOrder),
				button(flow.ActionCompleteOrder),
				button(flow.ActionRevisionOrder),
			),
			Handler: d.OrderStatus,
		},
		{
			Name:    "chat_list",
			States:  []session.State{session.StateMainMenu, session.StateChatList, session.StateChatView},
			Match:   button(flow.ActionMessages),
			Handler: d.ChatList,
		},
		{
			Name:    "chat_view",
			States:  []session.State{session.StateChatList, session.StateOrderDetail, session.StateChatView},
			Match:   button(flow.ActionChat),
			Handler: d.ChatView,
		},
		{
			Name:    "send_message_prompt",
			States:  []session.State{session.StateChatView},
			Match:   button(flow.ActionSendMessage),
			Handler: d.SendMessagePrompt,
		},
		{
			Name:    "assistant_enter",
			States:  []session.State{session.StateMainMenu},
			Match:   button(flow.ActionAssistant),
			Handler: d.AssistantEnter,
		},
		{
			Name:    "set_language",
			States:  []session.State{session.StateLanguageSelect},
			Match:   button(flow.ActionSetLanguage),
			Handler: d.SetLanguage,
		},
		{
			Name:    "help_button",
			States:  []session.State{session.StateMainMenu},
			Match:   button(flow.ActionHelp),
			Handler: d.HelpButton,
		},
		{
			Name:    "about",
			States:  []session.State{session.StateMainMenu},
			Match:   button(flow.ActionAbout),
			Handler: d.About,
		},
		{
			Name:    "commands_menu",
			States:  []session.State{session.StateMainMenu},
			Match:   button(flow.ActionCommandsMenu),
			Handler: d.CommandsMenu,
		},

		{
			Name:   "send_pending_message",
			States: []session.State{session.StateChatView},
			Match: func(ev flow.Event, s session.Session) bool {
				return ev.Kind == flow.KindText && s.Pending.MessageForOrder != ""
			},
			Handler: d.SendPendingMessage,
		},
		{
			Name:    "assistant_ask",
			States:  []session.State{session.StateAssistant},
			Match:   freeText,
			Handler: d.AssistantAsk,
		},
		{Name: "text_redirect", Match: freeText, Handler: d.TextRedirect},
	}
}
