package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/channel"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
)

// App wires the channel and the synchronization engine together.
type App struct {
	cfg    config.Config
	ch     *channel.WS
	engine *core.Engine
	log    *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	ch := channel.NewWS(channel.Options{
		URL:          cfg.ServerURL,
		Username:     cfg.Username,
		DialTimeout:  cfg.DialTimeout,
		PingInterval: cfg.PingInterval,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
	}, logger)
	engine := core.NewEngine(ch, clock.New(), cfg.TypingDebounce, logger)

	return &App{
		cfg:    cfg,
		ch:     ch,
		engine: engine,
		log:    logger,
	}
}

// Engine exposes the engine for the presentation layer.
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Run connects the channel, joins the configured room and blocks in the
// engine loop until context cancellation.
func (a *App) Run(ctx context.Context) error {
	if err := a.ch.Connect(ctx); err != nil {
		return fmt.Errorf("connect channel: %w", err)
	}
	defer a.ch.Close()

	a.engine.Join(a.cfg.Username, a.cfg.Room)
	a.log.Info().
		Str("server", a.cfg.ServerURL).
		Str("user", a.cfg.Username).
		Str("room", a.cfg.Room).
		Msg("session started")

	if err := a.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
