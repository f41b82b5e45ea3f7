package flow

import (
	"context"
	"sync"

	"github.com/hiwwer/marketbot/core/logger"
	"github.com/hiwwer/marketbot/internal/session"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Request carries one inbound event plus a snapshot of the session it
// targets. Handlers never touch the store directly.
type Request struct {
	ChatID     int64
	TelegramID int64
	Username   string
	Session    session.Session
	Event      Event
}

// Render is one outbound message produced by a handler.
type Render struct {
	Text   string
	Markup *tele.ReplyMarkup
	// Edit asks the transport to edit the triggering message when possible.
	Edit bool
}

// Result declares what a handler wants committed and rendered.
type Result struct {
	Renders []Render
	// Next is the committed state; empty leaves the state unchanged.
	Next session.State
	// Mutate optionally adjusts session fields (token, pending, language)
	// and is applied atomically before Next is committed.
	Mutate func(*session.Session)
}

// Reply is a convenience constructor for a single-message result.
func Reply(next session.State, text string, markup *tele.ReplyMarkup) Result {
	return Result{
		Renders: []Render{{Text: text, Markup: markup}},
		Next:    next,
	}
}

// HandlerFunc executes one business action for a matched event.
type HandlerFunc func(ctx context.Context, req Request) Result

// Rule is one row of the transition table. The first rule whose Match
// accepts the event and whose state set contains the current state wins.
type Rule struct {
	Name string
	// States lists the states the rule is valid in; empty means any.
	States  []session.State
	Match   func(ev Event, s session.Session) bool
	Handler HandlerFunc
}

func (r Rule) allows(state session.State) bool {
	if len(r.States) == 0 {
		return true
	}
	for _, s := range r.States {
		if s == state {
			return true
		}
	}
	return false
}

// Dispatcher matches inbound events against the transition table and commits
// the resulting state. Events from the same chat are handled in arrival
// order; different chats run in parallel.
type Dispatcher struct {
	store *session.Store
	rules []Rule

	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher builds a dispatcher over the transition table.
func NewDispatcher(store *session.Store, rules []Rule) *Dispatcher {
	return &Dispatcher{
		store: store,
		rules: rules,
		locks: make(map[int64]*chatLock),
	}
}

func (d *Dispatcher) lockChat(chatID int64) func() {
	d.mu.Lock()
	l, ok := d.locks[chatID]
	if !ok {
		l = &chatLock{}
		d.locks[chatID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, chatID)
		}
		d.mu.Unlock()
	}
}

// Dispatch routes one event. Unmatched events are dropped with a warning and
// leave the state unchanged; the caller renders nothing in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID, telegramID int64, username string, ev Event) Result {
	unlock := d.lockChat(chatID)
	defer unlock()

	sess := d.store.Get(chatID)

	var matched *Rule
	for i := range d.rules {
		r := &d.rules[i]
		if !r.allows(sess.State) {
			continue
		}
		if r.Match != nil && !r.Match(ev, sess) {
			continue
		}
		matched = r
		break
	}

	if matched == nil {
		logger.FLOW.Warn("event dropped",
			slog.String("event", "flow.drop"),
			slog.Int64("chat_id", chatID),
			slog.String("action", ev.Describe()),
			slog.String("state", string(sess.State)),
		)
		return Result{}
	}

	req := Request{
		ChatID:     chatID,
		TelegramID: telegramID,
		Username:   username,
		Session:    sess,
		Event:      ev,
	}
	res := matched.Handler(ctx, req)

	committed := d.store.Update(chatID, func(s *session.Session) {
		if res.Mutate != nil {
			res.Mutate(s)
		}
		if res.Next != "" {
			s.State = res.Next
		}
	})

	if logger.ShouldSampleDebug() {
		logger.FLOW.Debug("event handled",
			slog.String("event", "flow.handle"),
			slog.Int64("chat_id", chatID),
			slog.String("action", ev.Describe()),
			slog.String("handler", matched.Name),
			slog.String("state", string(sess.State)),
			slog.String("next_state", string(committed.State)),
		)
	}

	return res
}
