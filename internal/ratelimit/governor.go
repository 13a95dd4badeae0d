// Package ratelimit paces outbound API calls with a sliding admission window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/expert-scout/internal/utils"
	"go.uber.org/zap"
)

const (
	DefaultWindow  = 60 * time.Second
	DefaultCeiling = 40
	DefaultDelay   = 1500 * time.Millisecond
	DefaultMargin  = time.Second
)

// Config controls the admission window.
type Config struct {
	Window  time.Duration `mapstructure:"window"`
	Ceiling int           `mapstructure:"max-requests"`
	Delay   time.Duration `mapstructure:"delay"`
	Margin  time.Duration `mapstructure:"margin"`
}

// DefaultConfig returns the standard pacing for the public search API.
func DefaultConfig() Config {
	return Config{
		Window:  DefaultWindow,
		Ceiling: DefaultCeiling,
		Delay:   DefaultDelay,
		Margin:  DefaultMargin,
	}
}

// Governor admits at most Ceiling calls per trailing Window and spaces every
// admitted call by Delay. It is meant for a single caller.
type Governor struct {
	cfg    Config
	calls  []time.Time
	logger *zap.Logger

	now   func() time.Time
	sleep utils.Sleeper

	// OnWait, when set, receives every non-zero pause taken by Admit.
	OnWait func(reason string, d time.Duration)
}

// New returns a governor. Zero config values fall back to package defaults.
func New(cfg Config, logger *zap.Logger) *Governor {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Ceiling <= 0 {
		cfg.Ceiling = DefaultCeiling
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Margin < 0 {
		cfg.Margin = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Governor{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		sleep:  utils.WaitFor,
	}
}

// WithClock replaces the time source and sleeper. Used by tests and dry runs.
func (g *Governor) WithClock(now func() time.Time, sleep utils.Sleeper) *Governor {
	if now != nil {
		g.now = now
	}
	if sleep != nil {
		g.sleep = sleep
	}
	return g
}

// Admit blocks until one more call fits in the window, records it and then
// waits the fixed inter-call delay.
func (g *Governor) Admit(ctx context.Context) error {
	now := g.now()
	g.prune(now)

	if len(g.calls) >= g.cfg.Ceiling {
		wait := g.cfg.Window - now.Sub(g.calls[0]) + g.cfg.Margin
		if wait > 0 {
			g.logger.Info("rate limit reached, sleeping",
				zap.Duration("wait", wait),
				zap.Int("admitted_in_window", len(g.calls)),
			)
			if err := g.pause(ctx, "window", wait); err != nil {
				return err
			}
		}
		now = g.now()
		g.prune(now)
	}

	g.calls = append(g.calls, now)

	return g.pause(ctx, "delay", g.cfg.Delay)
}

// InWindow reports how many admissions are currently inside the window.
func (g *Governor) InWindow() int {
	g.prune(g.now())
	return len(g.calls)
}

func (g *Governor) prune(now time.Time) {
	cutoff := now.Add(-g.cfg.Window)
	keep := 0
	for keep < len(g.calls) && !g.calls[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		g.calls = append(g.calls[:0], g.calls[keep:]...)
	}
}

func (g *Governor) pause(ctx context.Context, reason string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if g.OnWait != nil {
		g.OnWait(reason, d)
	}
	if err := g.sleep(ctx, d); err != nil {
		return fmt.Errorf("rate governor wait: %w", err)
	}
	return nil
}
