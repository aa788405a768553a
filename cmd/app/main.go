package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAMZalaf/bmomtm/internal/adapters/db/sqlstore"
	httpadapter "github.com/SAMZalaf/bmomtm/internal/adapters/http"
	rpcadapter "github.com/SAMZalaf/bmomtm/internal/adapters/rpcjson"
	"github.com/SAMZalaf/bmomtm/internal/adapters/session"
	"github.com/SAMZalaf/bmomtm/internal/application"
	"github.com/SAMZalaf/bmomtm/internal/config"
	"github.com/SAMZalaf/bmomtm/internal/domain"
	"github.com/SAMZalaf/bmomtm/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "bmomtm",
		Usage: "Telegram bot button menu admin server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			buttonsCommand(),
			botCommand(),
			settingsCommand(),
			ordersCommand(),
			logsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run the HTTP console and the JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file (defaults to CONFIG_PATH, then ./local.yaml)"},
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-driver", Usage: "sqlite or postgres"},
			&cli.StringFlag{Name: "db-dsn", Usage: "database path or postgres DSN"},
			&cli.StringFlag{Name: "admin-password", Usage: "initial admin password when none is stored"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			overrideString(c, "addr", &cfg.HTTP.Addr)
			overrideString(c, "rpc-socket", &cfg.RPC.Socket)
			overrideString(c, "db-driver", &cfg.DB.Driver)
			overrideString(c, "db-dsn", &cfg.DB.DSN)
			overrideString(c, "admin-password", &cfg.Auth.AdminPassword)
			overrideString(c, "log-level", &cfg.Log.Level)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServer(ctx, cfg)
		},
	}
}

func overrideString(c *cli.Command, flag string, dst *string) {
	if c.IsSet(flag) {
		*dst = c.String(flag)
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	db, err := sqlstore.Open(cfg.DB.Driver, cfg.DB.DSN, logger)
	if err != nil {
		return err
	}
	if err := sqlstore.RunMigrations(ctx, db); err != nil {
		return err
	}
	repo := sqlstore.NewMenuRepository(db)

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	opts := []application.Option{application.WithLogger(logger)}
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.InitMetrics(prometheus.NewRegistry())
		opts = append(opts, application.WithObserver(metrics))
	}
	menu := application.NewMenuService(repo, opts...)
	auth := application.NewAuthService(repo, sessions, cfg.Auth.SessionTTL, logger)
	if err := auth.Bootstrap(ctx, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpadapter.NewRouter(menu, auth, logger, metrics),
		ReadHeaderTimeout: 5 * time.Second,
	}
	rpcSrv, err := rpcadapter.Start(cfg.RPC.Socket, menu, auth, logger)
	if err != nil {
		return err
	}
	defer func() { _ = rpcSrv.Close() }()
	logger.Info("json-rpc listening", zap.String("socket", cfg.RPC.Socket))

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("db_driver", cfg.DB.Driver),
			zap.String("sessions", cfg.Auth.SessionBackend),
		)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newSessionStore(ctx context.Context, cfg *config.Config) (domain.SessionStore, func(), error) {
	switch cfg.Auth.SessionBackend {
	case config.SessionRedis:
		store, err := session.NewRedisStore(ctx, cfg.Auth.RedisURL, "bmomtm:session:")
		if err != nil {
			return nil, nil, fmt.Errorf("connect session redis: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		store := session.NewMemoryStore(time.Minute, nil)
		return store, func() { _ = store.Close() }, nil
	}
}
