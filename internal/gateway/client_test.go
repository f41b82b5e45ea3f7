package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/hiwwer/marketbot/core/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(coreconfig.BackendConfig{
		BaseURL:            srv.URL,
		CallTimeoutSeconds: 2,
		ServiceKey:         "svc-key",
	})
}

func TestOrdersOK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Order{
			{ID: "o-1", Title: "Logo design", Status: "in_progress"},
			{ID: "o-2", Title: "Landing page", Status: "completed"},
		})
	})

	res := c.Orders(context.Background(), "tok-1")
	require.True(t, res.OK())
	require.Len(t, res.Value, 2)
	assert.Equal(t, "o-1", res.Value[0].ID)
	assert.Equal(t, "completed", res.Value[1].Status)
}

func TestNonOKStatusMapsToHTTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	res := c.OrderDetail(context.Background(), "tok", "o-9")
	assert.False(t, res.OK())
	assert.Equal(t, StatusHTTP, res.Status)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMalformedBodyMapsToDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42`))
	})

	res := c.UserByTelegramID(context.Background(), 1001)
	assert.False(t, res.OK())
	assert.Equal(t, StatusDecode, res.Status)
	assert.Error(t, res.Err)
}

func TestSlowBackendMapsToTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(3 * time.Second)
	})

	start := time.Now()
	res := c.Orders(context.Background(), "tok")
	assert.False(t, res.OK())
	assert.Equal(t, StatusTimeout, res.Status)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestServiceCallsCarryServiceKey(t *testing.T) {
	var gotKey, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Service-Key")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode([]Notification{})
	})

	res := c.PendingNotifications(context.Background(), 24*time.Hour, 50)
	require.True(t, res.OK())
	assert.Equal(t, "svc-key", gotKey)
	assert.Equal(t, "/notifications/pending-telegram", gotPath)
}

func TestMarkDeliveredAcceptsEmptyBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	res := c.MarkNotificationDelivered(context.Background(), "n-1")
	assert.True(t, res.OK())
}
