package notify

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hiwwer/marketbot/core/logger"
	"github.com/hiwwer/marketbot/internal/gateway"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Backend is the slice of the gateway the poller consumes.
type Backend interface {
	PendingNotifications(ctx context.Context, window time.Duration, pageSize int) gateway.Result[[]gateway.Notification]
	ChatForUser(ctx context.Context, userID string) gateway.Result[gateway.TelegramChat]
	MarkNotificationDelivered(ctx context.Context, id string) gateway.Result[gateway.Ack]
}

// Sender delivers one formatted message to a chat. The call is atomic per
// invocation and must be safe for concurrent use across chats.
type Sender interface {
	Send(chatID int64, text string, markup *tele.ReplyMarkup) error
}

// BotSender adapts a telebot instance to the Sender interface. Delivery is
// synchronous: the poller must know the outcome before marking.
type BotSender struct {
	Bot *tele.Bot
}

// Send implements Sender.
func (s BotSender) Send(chatID int64, text string, markup *tele.ReplyMarkup) error {
	_, err := s.Bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: markup,
	})
	return err
}

// Options tunes the delivery loop.
type Options struct {
	Interval time.Duration
	Window   time.Duration
	PageSize int
	Links    Links
}

// Poller fetches undelivered notifications on a fixed interval and pushes
// them to chats with at-least-once delivery and effectively-once visible
// effect.
type Poller struct {
	gw     Backend
	sender Sender
	ledger Ledger
	opts   Options
	wg     sync.WaitGroup
}

// New assembles a poller.
func New(gw Backend, sender Sender, ledger Ledger, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Poller{gw: gw, sender: sender, ledger: ledger, opts: opts}
}

// Start launches the loop. It runs until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Wait blocks until the loop has exited.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context) {
	logger.NOTIFY.Info("poller started",
		slog.String("event", "notify.start"),
		slog.Duration("interval", p.opts.Interval),
		slog.Int("page_size", p.opts.PageSize),
	)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.NOTIFY.Info("poller stopped", slog.String("event", "notify.stop"))
			return
		case <-ticker.C:
			p.Cycle(ctx)
		}
	}
}

// Cycle runs one fetch-and-deliver pass. Failures are logged and absorbed;
// the fixed interval is the only retry mechanism.
func (p *Poller) Cycle(ctx context.Context) {
	cycle := uuid.NewString()
	start := time.Now()

	res := p.gw.PendingNotifications(ctx, p.opts.Window, p.opts.PageSize)
	if !res.OK() {
		logger.NOTIFY.Warn("fetch failed",
			slog.String("event", "notify.fetch_failed"),
			slog.String("cycle", cycle),
			slog.String("status", res.Status.String()),
		)
		return
	}

	var sent, skipped int
	for _, n := range res.Value {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if p.Process(ctx, cycle, n) {
			sent++
		} else {
			skipped++
		}
	}

	if len(res.Value) > 0 || logger.ShouldSampleDebug() {
		logger.NOTIFY.Info("cycle complete",
			slog.String("event", "notify.cycle"),
			slog.String("cycle", cycle),
			slog.Int("fetched", len(res.Value)),
			slog.Int("sent", sent),
			slog.Int("skipped", skipped),
			slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
		)
	}
}

// Process delivers a single notification. It reports whether a send went
// out. Panics and errors are contained: one bad record never aborts the
// batch.
func (p *Poller) Process(ctx context.Context, cycle string, n gateway.Notification) (delivered bool) {
	defer func() {
		if r := recover(); r != nil {
			delivered = false
			logger.NOTIFY.Error("panic processing notification",
				slog.String("event", "notify.panic"),
				slog.String("cycle", cycle),
				slog.String("notification_id", n.ID),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	if n.DeliveredToChat {
		return false
	}

	seen, err := p.ledger.Seen(ctx, n.ID)
	if err != nil {
		logger.NOTIFY.Warn("ledger lookup failed",
			slog.String("event", "notify.ledger_failed"),
			slog.String("cycle", cycle),
			slog.String("notification_id", n.ID),
			slog.String("err", err.Error()),
		)
	}
	if seen {
		// Send already happened; only the backend mark is outstanding.
		p.mark(ctx, cycle, n.ID)
		return false
	}

	chat := p.gw.ChatForUser(ctx, n.UserID)
	if !chat.OK() {
		logger.NOTIFY.Warn("chat unresolved, skipping",
			slog.String("event", "notify.unresolved"),
			slog.String("cycle", cycle),
			slog.String("notification_id", n.ID),
			slog.String("user_id", n.UserID),
			slog.String("status", chat.Status.String()),
		)
		return false
	}

	text, markup := formatNotification(n, chat.Value.Language, p.opts.Links)
	if err := p.sender.Send(chat.Value.ChatID, text, markup); err != nil {
		logger.NOTIFY.Warn("send failed",
			slog.String("event", "notify.send_failed"),
			slog.String("cycle", cycle),
			slog.String("notification_id", n.ID),
			slog.String("notification_type", n.Type),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return false
	}

	if err := p.ledger.Record(ctx, n.ID); err != nil {
		logger.NOTIFY.Warn("ledger record failed",
			slog.String("event", "notify.ledger_failed"),
			slog.String("cycle", cycle),
			slog.String("notification_id", n.ID),
			slog.String("err", err.Error()),
		)
	}

	p.mark(ctx, cycle, n.ID)

	if logger.ShouldSampleDebug() {
		logger.NOTIFY.Debug("notification delivered",
			slog.String("event", "notify.delivered"),
			slog.String("cycle", cycle),
			slog.String("notification_id", n.ID),
			slog.String("notification_type", n.Type),
			slog.Int64("chat_id", chat.Value.ChatID),
		)
	}
	return true
}

func (p *Poller) mark(ctx context.Context, cycle, id string) {
	if res := p.gw.MarkNotificationDelivered(ctx, id); !res.OK() {
		// The record stays eligible for re-fetch; the ledger turns the
		// retry into a mark-only pass.
		logger.NOTIFY.Warn("mark delivered failed",
			slog.String("event", "notify.mark_failed"),
			slog.String("cycle", cycle),
			slog.String("notification_id", id),
			slog.String("status", res.Status.String()),
		)
	}
}
