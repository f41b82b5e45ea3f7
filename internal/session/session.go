package session

// State enumerates the closed set of conversation states.
type State string

const (
	StateMainMenu       State = "main_menu"
	StateOrderList      State = "order_list"
	StateOrderDetail    State = "order_detail"
	StateChatList       State = "chat_list"
	StateChatView       State = "chat_view"
	StateAssistant      State = "assistant"
	StateLanguageSelect State = "language_select"
)

// Valid reports whether s is a member of the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateMainMenu, StateOrderList, StateOrderDetail,
		StateChatList, StateChatView, StateAssistant, StateLanguageSelect:
		return true
	}
	return false
}

// Pending holds short-lived context needed to complete a multi-step action.
// Keys are only meaningful in specific states and are cleared on leaving them.
type Pending struct {
	// MessageForOrder is the order the next free-text message is destined for.
	MessageForOrder string
	// CurrentChatOrderID is the order whose chat is open in chat_view.
	CurrentChatOrderID string
}

// Empty reports whether no pending context is set.
func (p Pending) Empty() bool {
	return p.MessageForOrder == "" && p.CurrentChatOrderID == ""
}

// Session is the per-chat conversation state.
type Session struct {
	ChatID       int64
	UserID       string
	Token        string
	Name         string
	LanguageCode string
	State        State
	Pending      Pending
}

// Authenticated reports whether the session carries a backend token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

func newSession(chatID int64) Session {
	return Session{
		ChatID:       chatID,
		LanguageCode: "en",
		State:        StateMainMenu,
	}
}
