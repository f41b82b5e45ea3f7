package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	coreconfig "github.com/hiwwer/marketbot/core/config"
	"github.com/hiwwer/marketbot/core/logger"
	"github.com/hiwwer/marketbot/core/telegram/netutil"
	"log/slog"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	defaultResponseTimeout = 5 * time.Second
	defaultRetryAttempts   = 2
	defaultRetryBackoff    = 500 * time.Millisecond
)

// Client talks to the marketplace backend. Every call is bounded by the
// configured timeout and reports its outcome as a typed Result.
type Client struct {
	baseURL    string
	serviceKey string
	timeout    time.Duration
	http       *http.Client
}

// New builds a backend client from configuration.
func New(cfg coreconfig.BackendConfig) *Client {
	timeout := time.Duration(cfg.CallTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout,
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		timeout:    timeout,
		http: &http.Client{
			Transport: &retryTransport{
				base:       transport,
				maxRetries: defaultRetryAttempts,
				backoff:    defaultRetryBackoff,
			},
		},
	}
}

type callOpts struct {
	token   string
	service bool
	query   url.Values
}

func call[T any](ctx context.Context, c *Client, method, path string, body any, opts callOpts) Result[T] {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail[T](StatusDecode, 0, fmt.Errorf("gateway: encode request: %w", err))
		}
		reqBody = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(opts.query) > 0 {
		target += "?" + opts.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fail[T](StatusTransport, 0, fmt.Errorf("gateway: build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.service && c.serviceKey != "" {
		req.Header.Set("X-Service-Key", c.serviceKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		res := fail[T](classifyTransportError(err), 0, err)
		logCall(method, path, res.Status, 0, time.Since(start), err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		res := fail[T](StatusHTTP, resp.StatusCode, fmt.Errorf("gateway: %s %s: status %d", method, path, resp.StatusCode))
		logCall(method, path, res.Status, resp.StatusCode, time.Since(start), res.Err)
		return res
	}

	var value T
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		res := fail[T](classifyTransportError(err), 0, err)
		logCall(method, path, res.Status, resp.StatusCode, time.Since(start), err)
		return res
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &value); err != nil {
			res := fail[T](StatusDecode, resp.StatusCode, fmt.Errorf("gateway: decode %s %s: %w", method, path, err))
			logCall(method, path, res.Status, resp.StatusCode, time.Since(start), err)
			return res
		}
	}

	logCall(method, path, StatusOK, resp.StatusCode, time.Since(start), nil)
	return ok(value)
}

func classifyTransportError(err error) Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return StatusTimeout
	}
	return StatusTransport
}

func logCall(method, path string, status Status, code int, took time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("event", "gw.call"),
		slog.String("endpoint", method+" "+path),
		slog.String("status", status.String()),
		slog.Int64("duration_ms", logger.RoundMS(took).Milliseconds()),
	}
	if code != 0 {
		attrs = append(attrs, slog.Int("code", code))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.GW.LogAttrs(context.Background(), slog.LevelWarn, "gw.call", attrs...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.GW.LogAttrs(context.Background(), slog.LevelDebug, "gw.call", attrs...)
	}
}

// UserByTelegramID resolves a backend profile and token from a Telegram id.
func (c *Client) UserByTelegramID(ctx context.Context, telegramID int64) Result[User] {
	path := "/users/by-telegram/" + strconv.FormatInt(telegramID, 10)
	return call[User](ctx, c, http.MethodGet, path, nil, callOpts{})
}

// Orders fetches the caller's orders.
func (c *Client) Orders(ctx context.Context, token string) Result[[]Order] {
	return call[[]Order](ctx, c, http.MethodGet, "/orders", nil, callOpts{token: token})
}

// OrderDetail fetches a single order.
func (c *Client) OrderDetail(ctx context.Context, token, orderID string) Result[Order] {
	return call[Order](ctx, c, http.MethodGet, "/orders/"+orderID, nil, callOpts{token: token})
}

// Messages fetches the chat history of an order.
func (c *Client) Messages(ctx context.Context, token, orderID string) Result[[]Message] {
	return call[[]Message](ctx, c, http.MethodGet, "/orders/"+orderID+"/messages", nil, callOpts{token: token})
}

// PostMessage appends a chat message to an order.
func (c *Client) PostMessage(ctx context.Context, token, orderID, text string) Result[Message] {
	body := map[string]string{"text": text}
	return call[Message](ctx, c, http.MethodPost, "/orders/"+orderID+"/messages", body, callOpts{token: token})
}

// UpdateOrderStatus patches the order status.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID, status string) Result[Order] {
	body := map[string]string{"status": status}
	return call[Order](ctx, c, http.MethodPatch, "/orders/"+orderID, body, callOpts{token: token})
}

// UpdateLanguage patches the user's preferred language.
func (c *Client) UpdateLanguage(ctx context.Context, token, lang string) Result[Ack] {
	body := map[string]string{"language": lang}
	return call[Ack](ctx, c, http.MethodPatch, "/users/profile/language", body, callOpts{token: token})
}

// AssistantReply forwards a prompt to the backend assistant.
func (c *Client) AssistantReply(ctx context.Context, token, sessionID, prompt string) Result[AssistantAnswer] {
	body := map[string]string{"message": prompt, "session_id": sessionID}
	return call[AssistantAnswer](ctx, c, http.MethodPost, "/assistant", body, callOpts{token: token})
}

// LinkAccount links a Telegram identity to a web account using a one-time code.
func (c *Client) LinkAccount(ctx context.Context, code string, telegramID int64, username string, chatID int64) Result[User] {
	body := map[string]any{
		"code":        code,
		"telegram_id": telegramID,
		"username":    username,
		"chat_id":     chatID,
	}
	return call[User](ctx, c, http.MethodPost, "/auth/link-telegram-account", body, callOpts{})
}

// PendingNotifications fetches undelivered notifications within the recency window.
func (c *Client) PendingNotifications(ctx context.Context, window time.Duration, pageSize int) Result[[]Notification] {
	q := url.Values{}
	q.Set("window_hours", strconv.Itoa(int(window.Hours())))
	q.Set("limit", strconv.Itoa(pageSize))
	return call[[]Notification](ctx, c, http.MethodGet, "/notifications/pending-telegram", nil, callOpts{service: true, query: q})
}

// ChatForUser resolves the Telegram chat of a backend user.
func (c *Client) ChatForUser(ctx context.Context, userID string) Result[TelegramChat] {
	return call[TelegramChat](ctx, c, http.MethodGet, "/users/"+userID+"/telegram-chat", nil, callOpts{service: true})
}

// MarkNotificationDelivered flips the backend delivered flag.
func (c *Client) MarkNotificationDelivered(ctx context.Context, id string) Result[Ack] {
	return call[Ack](ctx, c, http.MethodPatch, "/notifications/"+id+"/telegram-sent", nil, callOpts{service: true})
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil {
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
