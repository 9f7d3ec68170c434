package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Chat/internal/adapters/http"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/app/orch"
	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/store/postgres"
	"github.com/dkeye/Chat/internal/store/redis"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	var sinks []app.Sink
	var roles app.RoleResolver = app.NewStaticRoles(cfg.Roles.Default, cfg.Roles.Admins)

	if cfg.Redis.Addr != "" {
		cli, err := redis.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis")
		}
		defer cli.Close()
		sinks = append(sinks, redis.NewMirror(cli, cfg.Redis.History))
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis mirror enabled")
	}

	if cfg.Postgres.DSN != "" {
		pg, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres")
		}
		defer pg.Close()
		if err := pg.CreateSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres schema")
		}
		sinks = append(sinks, pg.Archive())
		roles = app.FallbackRoles{Primary: pg.Roles(), Fallback: roles}
		log.Info().Msg("postgres archive enabled")
	}

	fanout := app.NewFanout(app.DefaultSinkBuffer, sinks...)
	o := orch.New(orch.Options{
		Policy:         app.SimplePolicy{},
		Sink:           fanout,
		InboxSize:      cfg.InboxSize,
		TypingDebounce: cfg.TypingDebounce,
		HistoryLimit:   cfg.HistoryLimit,
	})

	r := router.SetupRouter(ctx, cfg, o, roles)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return o.Run(gctx) })
	g.Go(func() error { return fanout.Run(gctx) })
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Chat server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		return
	}
	log.Info().Msg("Server exited gracefully")
}
