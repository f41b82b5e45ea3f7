package flow

import (
	"context"
	"sync"
	"testing"

	"github.com/hiwwer/marketbot/internal/session"
)

func acceptAll(Event, session.Session) bool { return true }

func TestButtonEventRejectsUnknownKeys(t *testing.T) {
	if _, ok := ButtonEvent("drop_tables", ""); ok {
		t.Fatal("unknown callback key must be rejected at the boundary")
	}
	ev, ok := ButtonEvent("order", "O1")
	if !ok {
		t.Fatal("known key rejected")
	}
	if ev.Action != ActionOrder || ev.Payload != "O1" {
		t.Fatalf("decoded event = %+v", ev)
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	store := session.NewStore()
	var ran []string
	rule := func(name string, states []session.State) Rule {
		return Rule{
			Name:   name,
			States: states,
			Match:  acceptAll,
			Handler: func(context.Context, Request) Result {
				ran = append(ran, name)
				return Result{}
			},
		}
	}
	d := NewDispatcher(store, []Rule{
		rule("gated", []session.State{session.StateAssistant}),
		rule("first", nil),
		rule("second", nil),
	})

	d.Dispatch(context.Background(), 1, 1, "", TextEvent("x"))

	if len(ran) != 1 || ran[0] != "first" {
		t.Fatalf("ran = %v, want [first]", ran)
	}
}

func TestUnmatchedEventKeepsState(t *testing.T) {
	store := session.NewStore()
	d := NewDispatcher(store, []Rule{
		{
			Name:   "assistant_only",
			States: []session.State{session.StateAssistant},
			Match:  acceptAll,
			Handler: func(context.Context, Request) Result {
				return Result{Next: session.StateMainMenu}
			},
		},
	})

	res := d.Dispatch(context.Background(), 5, 5, "", TextEvent("x"))

	if len(res.Renders) != 0 {
		t.Fatalf("dropped event rendered %d messages", len(res.Renders))
	}
	if got := store.Get(5).State; got != session.StateMainMenu {
		t.Fatalf("state = %q, want untouched main_menu", got)
	}
}

func TestMutateAppliedBeforeNext(t *testing.T) {
	store := session.NewStore()
	d := NewDispatcher(store, []Rule{{
		Name:  "arm",
		Match: acceptAll,
		Handler: func(context.Context, Request) Result {
			return Result{
				Next:   session.StateChatView,
				Mutate: func(s *session.Session) { s.Pending.MessageForOrder = "O7" },
			}
		},
	}})

	d.Dispatch(context.Background(), 2, 2, "", TextEvent("x"))

	s := store.Get(2)
	if s.State != session.StateChatView || s.Pending.MessageForOrder != "O7" {
		t.Fatalf("session = %+v", s)
	}
}

func TestSameChatEventsApplyInOrder(t *testing.T) {
	store := session.NewStore()
	d := NewDispatcher(store, []Rule{{
		Name:  "append",
		Match: acceptAll,
		Handler: func(_ context.Context, req Request) Result {
			marker := req.Event.Text
			return Result{Mutate: func(s *session.Session) { s.Name += marker }}
		},
	}})

	// Handlers for the same chat must not interleave even when dispatched
	// from concurrent goroutines.
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), 3, 3, "", TextEvent("a"))
		}()
	}
	wg.Wait()

	if got := len(store.Get(3).Name); got != 100 {
		t.Fatalf("applied %d events, want 100", got)
	}
}
