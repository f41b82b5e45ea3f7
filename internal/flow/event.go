package flow

// Kind discriminates the closed inbound event type.
type Kind int

const (
	// KindCommand is a slash command with optional arguments.
	KindCommand Kind = iota
	// KindButton is an inline button press decoded at the transport boundary.
	KindButton
	// KindText is a free-form text message.
	KindText
)

// Action enumerates the closed set of button actions. Callback payloads are
// decoded into this set exactly once; no string prefix matching happens past
// the boundary.
type Action string

const (
	ActionMyOrders       Action = "my_orders"
	ActionMessages       Action = "messages"
	ActionAssistant      Action = "assistant"
	ActionChangeLanguage Action = "change_language"
	ActionBackToMain     Action = "back_to_main"
	ActionHelp           Action = "help"
	ActionAbout          Action = "about"
	ActionCommandsMenu   Action = "commands_menu"
	ActionOrder          Action = "order"
	ActionChat           Action = "chat"
	ActionSendMessage    Action = "send_msg"
	ActionSetLanguage    Action = "set_lang"
	ActionStartOrder     Action = "start"
	ActionCompleteOrder  Action = "complete"
	ActionRevisionOrder  Action = "revision"
)

var knownActions = map[Action]struct{}{
	ActionMyOrders:       {},
	ActionMessages:       {},
	ActionAssistant:      {},
	ActionChangeLanguage: {},
	ActionBackToMain:     {},
	ActionHelp:           {},
	ActionAbout:          {},
	ActionCommandsMenu:   {},
	ActionOrder:          {},
	ActionChat:           {},
	ActionSendMessage:    {},
	ActionSetLanguage:    {},
	ActionStartOrder:     {},
	ActionCompleteOrder:  {},
	ActionRevisionOrder:  {},
}

// Event is an inbound chat event after boundary decoding.
type Event struct {
	Kind Kind

	// Command fields (KindCommand).
	Command string
	Args    string

	// Button fields (KindButton).
	Action  Action
	Payload string

	// Text field (KindText).
	Text string
}

// CommandEvent builds a command event.
func CommandEvent(name, args string) Event {
	return Event{Kind: KindCommand, Command: name, Args: args}
}

// ButtonEvent decodes a callback key/payload pair into a button event.
// Unknown keys are rejected; the caller drops them.
func ButtonEvent(key, payload string) (Event, bool) {
	action := Action(key)
	if _, ok := knownActions[action]; !ok {
		return Event{}, false
	}
	return Event{Kind: KindButton, Action: action, Payload: payload}, true
}

// TextEvent builds a free-text event.
func TextEvent(body string) Event {
	return Event{Kind: KindText, Text: body}
}

// IsCommand reports whether the event is the named slash command.
func (e Event) IsCommand(name string) bool {
	return e.Kind == KindCommand && e.Command == name
}

// IsButton reports whether the event is a press of the given action.
func (e Event) IsButton(action Action) bool {
	return e.Kind == KindButton && e.Action == action
}

// Describe renders a short token for logs.
func (e Event) Describe() string {
	switch e.Kind {
	case KindCommand:
		return "command:" + e.Command
	case KindButton:
		return "button:" + string(e.Action)
	case KindText:
		return "text"
	}
	return "unknown"
}
