// Package app assembles postbot from its configuration: database, sessions,
// access policy, conversation engine and the Telegram runtime options.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/core/bootstrap"
	corecmd "github.com/m3rciful/postbot/core/cmd"
	"github.com/m3rciful/postbot/core/logger"
	tg "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/state"
	"github.com/m3rciful/postbot/internal/access"
	"github.com/m3rciful/postbot/internal/archive"
	"github.com/m3rciful/postbot/internal/config"
	"github.com/m3rciful/postbot/internal/flow"
	"github.com/m3rciful/postbot/internal/posts"
	"github.com/m3rciful/postbot/internal/tgbot"

	tele "gopkg.in/telebot.v4"
)

// App owns the long-lived infrastructure of the bot.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	store    *posts.Store
	policy   *access.Policy
	sessions state.Store
	memory   *state.MemoryStore
	redis    *state.RedisStore

	channel *tgbot.Channel
	engine  *flow.Engine
	// wireErr is the failure of the Routes hook, reported by start.
	wireErr error
}

// Bootstrap is the corecmd.Options.Bootstrap hook for postbot.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(bootstrap.Options{Config: &cfg.Config, Database: cfg.Database})
	if err != nil {
		return nil, err
	}
	a, err := assemble(ctx, cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, cfg *config.Config, db *sqlx.DB) (*App, error) {
	policy, err := access.NewPolicy(cfg.Access.Operators, cfg.Access.Reviewers)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a := &App{cfg: cfg, db: db, store: posts.NewStore(db), policy: policy}

	switch cfg.Sessions.Backend {
	case config.SessionsRedis:
		rs, err := state.ConnectRedis(ctx, cfg.Sessions.RedisURL, cfg.Sessions.TTL)
		if err != nil {
			return nil, fmt.Errorf("app: sessions: %w", err)
		}
		a.redis, a.sessions = rs, rs
	default:
		a.memory = state.NewMemoryStore(cfg.Sessions.TTL)
		a.sessions = a.memory
	}
	logger.Info(ctx, "sessions", "sessions.ready",
		slog.String("backend", cfg.Sessions.Backend),
		slog.Duration("ttl", cfg.Sessions.TTL),
	)
	return a, nil
}

// engineOptions collects the engine collaborators; bot-backed ones need the
// running bot and are nil when their feature is off.
func (a *App) engineOptions(bot *tele.Bot) (flow.Options, error) {
	opts := flow.Options{
		Store:    a.store,
		Sessions: a.sessions,
		Access:   a.policy,
		Texts:    flow.TextsFor(a.cfg.Bot.Lang),
	}
	if bot == nil {
		return opts, nil
	}
	if name := a.cfg.Channel.Username; name != "" {
		a.channel = tgbot.NewChannel(bot, name)
		opts.Publisher = a.channel
	}
	if id := a.cfg.Review.NotifyChatID; id != 0 {
		opts.Notifier = tgbot.NewReviewNotifier(bot, id)
	}
	if ac := a.cfg.Archive; ac.Enabled {
		client, err := archive.NewClient(archive.Config{
			Endpoint:        ac.Endpoint,
			Region:          ac.Region,
			Bucket:          ac.Bucket,
			AccessKeyID:     ac.AccessKeyID,
			SecretAccessKey: ac.SecretAccessKey,
			PathStyle:       ac.PathStyle,
		})
		if err != nil {
			return opts, err
		}
		opts.Archiver = archive.New(client, tgbot.NewPhotoFetcher(bot), ac.Bucket, ac.Prefix)
	}
	return opts, nil
}

// TelegramRunOptions wires the registry, middleware, routes and lifecycle hooks.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	base, err := a.engineOptions(nil)
	if err != nil {
		return tg.RunOptions{}, err
	}
	if _, err := flow.New(base); err != nil {
		return tg.RunOptions{}, err
	}

	reg := tg.NewRegistry()
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, tgbot.LimitNotice(base.Texts)),
		Routes: func(rt tg.Runtime) []tg.Route {
			routes, err := a.wire(rt.Bot, reg)
			if err != nil {
				a.wireErr = err
				logger.TWire.Error("wiring failed",
					slog.String("event", "tg.wire"),
					slog.String("err", err.Error()),
				)
				return nil
			}
			return routes
		},
		OnStart: a.start,
	}, nil
}

// wire builds the engine and registers its handlers. The engine is kept
// only once every handler is registered.
func (a *App) wire(bot *tele.Bot, reg *tg.Registry) ([]tg.Route, error) {
	opts, err := a.engineOptions(bot)
	if err != nil {
		return nil, fmt.Errorf("app: engine options: %w", err)
	}
	engine, err := flow.New(opts)
	if err != nil {
		return nil, fmt.Errorf("app: engine: %w", err)
	}
	b := tgbot.New(engine)
	if err := b.Register(reg); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	a.engine = engine
	return b.Routes(reg), nil
}

func (a *App) start(ctx context.Context, _ tg.Runtime) error {
	if a.wireErr != nil {
		return a.wireErr
	}
	if a.engine == nil {
		return errors.New("app: conversation engine was not built")
	}
	if a.channel != nil {
		if err := a.channel.Resolve(ctx); err != nil {
			logger.LogEvent(ctx, logger.TWire, slog.LevelWarn, "channel.resolve",
				slog.String("outcome", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	if a.memory != nil {
		go a.memory.Run(ctx, a.cfg.Sessions.SweepInterval)
	}
	return nil
}

// Close releases the database pool and the session backend.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
