// Package discovery finds GitHub users for a domain and location and fetches
// their full profiles, pacing every call through a rate governor.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/utils"
)

const (
	DefaultCooldown     = 60 * time.Second
	DefaultErrorPause   = 5 * time.Second
	DefaultKeywordTerms = 2
	DefaultPerPage      = 30

	endpointSearch = "search"
	endpointUser   = "user"
)

// Searcher runs one user search page.
type Searcher interface {
	SearchUsers(ctx context.Context, params github.SearchParams) (*github.SearchResult, error)
}

// ProfileFetcher fetches a single user profile.
type ProfileFetcher interface {
	GetUser(ctx context.Context, login string) (*github.UserResult, error)
}

// Admitter blocks until one more outbound call is allowed.
type Admitter interface {
	Admit(ctx context.Context) error
}

// Observer receives the outcome of every API call.
type Observer interface {
	ObserveRequest(endpoint, outcome string)
	ObserveWait(reason string, d time.Duration)
}

type Config struct {
	PerPage      int           `mapstructure:"per-page"`
	KeywordTerms int           `mapstructure:"keyword-terms"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	ErrorPause   time.Duration `mapstructure:"error-pause"`
}

func DefaultConfig() Config {
	return Config{
		PerPage:      DefaultPerPage,
		KeywordTerms: DefaultKeywordTerms,
		Cooldown:     DefaultCooldown,
		ErrorPause:   DefaultErrorPause,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PerPage <= 0 {
		c.PerPage = d.PerPage
	}
	if c.KeywordTerms <= 0 {
		c.KeywordTerms = d.KeywordTerms
	}
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.ErrorPause < 0 {
		c.ErrorPause = 0
	}
	return c
}

type nopObserver struct{}

func (nopObserver) ObserveRequest(string, string)     {}
func (nopObserver) ObserveWait(string, time.Duration) {}

// pacer owns the fixed sleeps taken after failures and rate limits.
type pacer struct {
	observer Observer
	sleep    utils.Sleeper
}

func newPacer() pacer {
	return pacer{observer: nopObserver{}, sleep: utils.WaitFor}
}

func (p *pacer) pause(ctx context.Context, reason string, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	p.observer.ObserveWait(reason, d)
	if err := p.sleep(ctx, d); err != nil {
		return fmt.Errorf("%s pause: %w", reason, err)
	}
	return nil
}
