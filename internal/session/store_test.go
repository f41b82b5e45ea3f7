package session

import (
	"sync"
	"testing"
)

func TestGetCreatesDefaultSession(t *testing.T) {
	st := NewStore()

	s := st.Get(42)
	if s.State != StateMainMenu {
		t.Fatalf("fresh session state = %q, want %q", s.State, StateMainMenu)
	}
	if !s.Pending.Empty() {
		t.Fatalf("fresh session pending = %+v, want empty", s.Pending)
	}
	if s.Authenticated() {
		t.Fatal("fresh session must not carry a token")
	}
	if s.LanguageCode != "en" {
		t.Fatalf("fresh session language = %q, want en", s.LanguageCode)
	}
}

func TestUpdateIsVisibleToGet(t *testing.T) {
	st := NewStore()

	st.Update(7, func(s *Session) {
		s.Token = "tok"
		s.State = StateOrderList
	})

	s := st.Get(7)
	if s.Token != "tok" || s.State != StateOrderList {
		t.Fatalf("got %+v after update", s)
	}
}

func TestUpdateRejectsInvalidState(t *testing.T) {
	st := NewStore()

	st.Update(7, func(s *Session) { s.State = State("nonsense") })

	if got := st.Get(7).State; got != StateMainMenu {
		t.Fatalf("state after invalid write = %q, want %q", got, StateMainMenu)
	}
}

func TestConcurrentUpdatesSameChat(t *testing.T) {
	st := NewStore()
	const n = 200

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Update(1, func(s *Session) {
				if s.Pending.MessageForOrder == "" {
					s.Pending.MessageForOrder = "o"
				}
				s.Name += "x"
			})
		}()
	}
	wg.Wait()

	if got := len(st.Get(1).Name); got != n {
		t.Fatalf("lost updates: name length = %d, want %d", got, n)
	}
}

func TestDifferentChatsIndependent(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	for chat := int64(0); chat < 50; chat++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st.Update(id, func(s *Session) { s.State = StateAssistant })
		}(chat)
	}
	wg.Wait()

	if st.Len() != 50 {
		t.Fatalf("store len = %d, want 50", st.Len())
	}
	for chat := int64(0); chat < 50; chat++ {
		if got := st.Get(chat).State; got != StateAssistant {
			t.Fatalf("chat %d state = %q", chat, got)
		}
	}
}
