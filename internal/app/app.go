package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	corecmd "github.com/hiwwer/marketbot/core/cmd"
	coreconfig "github.com/hiwwer/marketbot/core/config"
	coredatabase "github.com/hiwwer/marketbot/core/database"
	"github.com/hiwwer/marketbot/core/logger"
	coretelegram "github.com/hiwwer/marketbot/core/telegram"
	"github.com/hiwwer/marketbot/core/telegram/commands"
	"github.com/hiwwer/marketbot/core/telegram/router"
	"github.com/hiwwer/marketbot/internal/assistant"
	"github.com/hiwwer/marketbot/internal/flow"
	"github.com/hiwwer/marketbot/internal/gateway"
	"github.com/hiwwer/marketbot/internal/handlers"
	"github.com/hiwwer/marketbot/internal/i18n"
	"github.com/hiwwer/marketbot/internal/notify"
	"github.com/hiwwer/marketbot/internal/ops"
	"github.com/hiwwer/marketbot/internal/session"
)

type configCarrier struct {
	cfg *coreconfig.Config
}

// CoreConfig implements cmd.ConfigCarrier.
func (c configCarrier) CoreConfig() *coreconfig.Config { return c.cfg }

// LoadConfig reads the YAML/env configuration for the runner.
func LoadConfig(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, err
	}
	return configCarrier{cfg: cfg}, nil
}

// App owns the assembled bot: gateway, conversation dispatcher, notification
// delivery, and the ops endpoint.
type App struct {
	cfg        *coreconfig.Config
	db         *sqlx.DB
	gw         *gateway.Client
	store      *session.Store
	dispatcher *flow.Dispatcher

	poller     *notify.Poller
	pollCancel context.CancelFunc
	intake     *notify.Intake
	opsServer  *ops.Server
}

// Bootstrap initializes logging and storage and wires the domain components.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg := carrier.CoreConfig()

	if err := logger.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("app: logger init failed: %w", err)
	}

	var db *sqlx.DB
	if cfg.DatabaseConfigured() {
		var err error
		db, err = coredatabase.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("app: ledger database unavailable: %w", err)
		}
		if err := coredatabase.RunMigrations(cfg.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("app: ledger migrations failed: %w", err)
		}
	}

	gw := gateway.New(cfg.Backend)
	deps := handlers.Deps{
		GW:        gw,
		Assistant: assistant.New(gw, cfg.Assistant),
		WebAppURL: cfg.Backend.WebAppURL,
	}
	store := session.NewStore()

	return &App{
		cfg:        cfg,
		db:         db,
		gw:         gw,
		store:      store,
		dispatcher: flow.NewDispatcher(store, deps.Rules()),
	}, nil
}

// TelegramRunOptions assembles the bot runtime: routes, middlewares, and the
// notification delivery lifecycle.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	bind := flow.Bind{D: a.dispatcher}

	reg := coretelegram.NewRegistry()
	for _, c := range []struct {
		name   string
		hidden bool
	}{
		{name: "start"},
		{name: "help"},
		{name: "language"},
		{name: "link"},
		{name: "cancel", hidden: true},
	} {
		reg.RegisterCommand("/"+c.name, commands.Command{
			Handler:     bind.Command(c.name),
			Description: i18n.Text(c.name+"_command", i18n.DefaultLanguage, nil),
			Hidden:      c.hidden,
		})
	}

	routes := []coretelegram.Route{
		router.CallbackRoute(bind, reg, router.CallbackOptions{}),
	}
	routes = append(routes, router.TextRoutes(bind, reg, router.TextOptions{})...)
	routes = append(routes, router.CommandRoutes(reg)...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if a.cfg.Ops.Listen != "" {
		a.opsServer = ops.New(a.cfg.Ops.Listen, a.readiness)
		a.opsServer.Start()
	}

	if !a.cfg.Notifications.Enabled {
		return nil
	}

	var ledger notify.Ledger
	if a.db != nil {
		ledger = notify.NewDBLedger(a.db)
	} else {
		ledger = notify.NewMemoryLedger()
	}

	a.poller = notify.New(a.gw, notify.BotSender{Bot: rt.Bot}, ledger, notify.Options{
		Interval: time.Duration(a.cfg.Notifications.IntervalSeconds) * time.Second,
		Window:   time.Duration(a.cfg.Notifications.WindowHours) * time.Hour,
		PageSize: a.cfg.Notifications.PageSize,
		Links: notify.Links{
			OrderBase: a.cfg.Notifications.OrderLinkBase,
			Profile:   a.cfg.Notifications.ProfileLink,
		},
	})

	pollCtx, cancel := context.WithCancel(ctx)
	a.pollCancel = cancel
	a.poller.Start(pollCtx)

	if a.cfg.Notifications.AMQP.Enabled {
		intake, err := notify.NewIntake(a.cfg.Notifications.AMQP, a.poller)
		if err != nil {
			// Polling still covers delivery; push intake is best-effort.
			logger.NOTIFY.Warn("amqp intake unavailable, polling only")
		} else if err := intake.Start(pollCtx); err != nil {
			logger.NOTIFY.Warn("amqp intake start failed, polling only")
			intake.Close()
		} else {
			a.intake = intake
		}
	}

	return nil
}

func (a *App) onStop(_ context.Context, _ coretelegram.Runtime) error {
	if a.pollCancel != nil {
		a.pollCancel()
	}
	if a.poller != nil {
		a.poller.Wait()
	}
	if a.intake != nil {
		a.intake.Close()
	}
	if a.opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.opsServer.Shutdown(shutdownCtx)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	return nil
}

// readiness probes backend reachability for /readyz. Any answered HTTP
// status counts as reachable; only transport-level failures do not.
func (a *App) readiness(ctx context.Context) error {
	res := a.gw.UserByTelegramID(ctx, 0)
	if res.Status == gateway.StatusTransport || res.Status == gateway.StatusTimeout {
		return fmt.Errorf("backend unreachable: %w", res.Err)
	}
	return nil
}
