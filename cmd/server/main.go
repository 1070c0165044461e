package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/membergate/membergate/internal/billing"
	"github.com/membergate/membergate/internal/user"
	"github.com/membergate/membergate/internal/web"
	"github.com/membergate/membergate/pkg/config"
	"github.com/membergate/membergate/pkg/httpserver"
	"github.com/membergate/membergate/pkg/logger"
	"github.com/membergate/membergate/pkg/pg"
	"github.com/membergate/membergate/pkg/redis"
	"github.com/membergate/membergate/pkg/session"
)

func main() {
	ctx := context.Background()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg, logger.WithAttr(slog.String("app", "membergate")))
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.ErrorContext(ctx, "server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	users, records, err := buildStores(ctx, log)
	if err != nil {
		return err
	}

	sessions, err := buildSessions(ctx, log)
	if err != nil {
		return err
	}

	var stripeCfg billing.StripeConfig
	config.MustLoad(&stripeCfg)
	gateway, err := billing.NewStripeGateway(stripeCfg)
	if err != nil {
		return err
	}

	reconciler := billing.NewReconciler(gateway, records, users, billing.WithLogger(log))
	gate := billing.NewAccessGate(records)

	views, err := web.NewViews()
	if err != nil {
		return err
	}

	handlers := web.NewHandlers(sessions, users, gate, gateway, views, log)
	webhook := web.NewWebhookHandler(gateway, reconciler, log)
	router := web.Router(sessions, handlers, webhook, gate, log)

	var serverCfg httpserver.Config
	config.MustLoad(&serverCfg)
	server := httpserver.NewFromConfig(serverCfg, httpserver.WithLogger(log))

	log.InfoContext(ctx, "starting server", slog.String("addr", serverCfg.Addr))
	return server.Run(ctx, router)
}

// buildStores returns Postgres-backed stores when a database is configured
// and in-memory ones otherwise. The memory fallback keeps local development
// free of infrastructure; records then do not survive restarts.
func buildStores(ctx context.Context, log *slog.Logger) (user.Store, billing.Store, error) {
	if os.Getenv("PG_CONN_URL") == "" {
		log.InfoContext(ctx, "no database configured, using in-memory stores")
		return user.NewMemoryStore(), billing.NewMemoryStore(), nil
	}

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return nil, nil, err
	}

	return user.NewPGStore(pool), billing.NewPGStore(pool), nil
}

// buildSessions backs sessions with Redis when configured, so they survive
// restarts and are shared across replicas.
func buildSessions(ctx context.Context, log *slog.Logger) (*session.Manager, error) {
	var sessionCfg session.Config
	config.MustLoad(&sessionCfg)

	if os.Getenv("REDIS_URL") == "" {
		log.InfoContext(ctx, "no redis configured, using in-memory sessions")
		return session.New(session.WithConfig(sessionCfg)), nil
	}

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)

	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}

	return session.New(
		session.WithConfig(sessionCfg),
		session.WithStore(session.NewRedisStore(client)),
	), nil
}
