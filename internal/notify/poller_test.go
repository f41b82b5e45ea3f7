package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiwwer/marketbot/internal/gateway"

	tele "gopkg.in/telebot.v4"
)

type fakeBackend struct {
	mu       sync.Mutex
	pending  []gateway.Notification
	chats    map[string]gateway.TelegramChat
	marked   []string
	failMark map[string]bool
}

func (f *fakeBackend) PendingNotifications(context.Context, time.Duration, int) gateway.Result[[]gateway.Notification] {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.Notification, len(f.pending))
	copy(out, f.pending)
	return gateway.Result[[]gateway.Notification]{Value: out, Status: gateway.StatusOK}
}

func (f *fakeBackend) ChatForUser(_ context.Context, userID string) gateway.Result[gateway.TelegramChat] {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat, ok := f.chats[userID]
	if !ok {
		return gateway.Result[gateway.TelegramChat]{Status: gateway.StatusHTTP, Code: 404}
	}
	return gateway.Result[gateway.TelegramChat]{Value: chat, Status: gateway.StatusOK}
}

func (f *fakeBackend) MarkNotificationDelivered(_ context.Context, id string) gateway.Result[gateway.Ack] {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMark[id] {
		return gateway.Result[gateway.Ack]{Status: gateway.StatusTransport}
	}
	f.marked = append(f.marked, id)
	for i := range f.pending {
		if f.pending[i].ID == id {
			f.pending[i].DeliveredToChat = true
		}
	}
	return gateway.Result[gateway.Ack]{Status: gateway.StatusOK}
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) Send(chatID int64, text string, _ *tele.ReplyMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func notif(id, userID, typ string) gateway.Notification {
	return gateway.Notification{ID: id, UserID: userID, Type: typ, Content: "content " + id}
}

func TestCycleSkipsUnresolvableAndCompletes(t *testing.T) {
	backend := &fakeBackend{
		pending: []gateway.Notification{
			notif("n1", "u1", gateway.TypeMessage),
			notif("n2", "ghost", gateway.TypeNewOrder),
			notif("n3", "u3", gateway.TypeReview),
		},
		chats: map[string]gateway.TelegramChat{
			"u1": {ChatID: 101, Language: "en"},
			"u3": {ChatID: 103, Language: "uk"},
		},
	}
	sender := &fakeSender{}
	p := New(backend, sender, NewMemoryLedger(), Options{})

	p.Cycle(context.Background())

	require.Equal(t, 2, sender.count())
	assert.ElementsMatch(t, []string{"n1", "n3"}, backend.marked)

	// n2 stays undelivered and is fetched again next cycle.
	res := backend.PendingNotifications(context.Background(), 0, 0)
	for _, n := range res.Value {
		if n.ID == "n2" {
			assert.False(t, n.DeliveredToChat)
		}
	}
}

func TestDeliveredNotificationNeverResent(t *testing.T) {
	backend := &fakeBackend{
		pending: []gateway.Notification{notif("n1", "u1", gateway.TypeMessage)},
		chats:   map[string]gateway.TelegramChat{"u1": {ChatID: 101}},
	}
	sender := &fakeSender{}
	p := New(backend, sender, NewMemoryLedger(), Options{})

	p.Cycle(context.Background())
	p.Cycle(context.Background())
	p.Cycle(context.Background())

	assert.Equal(t, 1, sender.count())
	assert.Equal(t, []string{"n1"}, backend.marked)
}

func TestFailedMarkLeavesRecordEligibleButLedgerSuppressesResend(t *testing.T) {
	backend := &fakeBackend{
		pending:  []gateway.Notification{notif("n1", "u1", gateway.TypeMessage)},
		chats:    map[string]gateway.TelegramChat{"u1": {ChatID: 101}},
		failMark: map[string]bool{"n1": true},
	}
	sender := &fakeSender{}
	p := New(backend, sender, NewMemoryLedger(), Options{})

	p.Cycle(context.Background())
	require.Equal(t, 1, sender.count())
	require.Empty(t, backend.marked)

	// Backend accepts the mark on the retry; the send must not repeat.
	backend.mu.Lock()
	backend.failMark["n1"] = false
	backend.mu.Unlock()

	p.Cycle(context.Background())
	assert.Equal(t, 1, sender.count(), "ledger must suppress a second send")
	assert.Equal(t, []string{"n1"}, backend.marked)
}

func TestAlreadyDeliveredFlagShortCircuits(t *testing.T) {
	n := notif("n1", "u1", gateway.TypeMessage)
	n.DeliveredToChat = true
	backend := &fakeBackend{
		pending: []gateway.Notification{n},
		chats:   map[string]gateway.TelegramChat{"u1": {ChatID: 101}},
	}
	sender := &fakeSender{}
	p := New(backend, sender, NewMemoryLedger(), Options{})

	p.Cycle(context.Background())

	assert.Zero(t, sender.count())
	assert.Empty(t, backend.marked)
}

func TestStartStopsOnCancel(t *testing.T) {
	backend := &fakeBackend{chats: map[string]gateway.TelegramChat{}}
	p := New(backend, &fakeSender{}, NewMemoryLedger(), Options{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	time.Sleep(35 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not exit after cancellation")
	}
}
