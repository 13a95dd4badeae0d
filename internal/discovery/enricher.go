package discovery

import (
	"context"
	"time"

	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/logger"
	"github.com/spigell/expert-scout/internal/utils"
	"go.uber.org/zap"
)

// Enricher fetches the full profile for an identity.
type Enricher struct {
	pacer

	client   ProfileFetcher
	governor Admitter
	cooldown time.Duration
	logger   *zap.Logger
}

func NewEnricher(client ProfileFetcher, governor Admitter, cfg Config, log *zap.Logger) *Enricher {
	cfg = cfg.withDefaults()
	return &Enricher{
		pacer:    newPacer(),
		client:   client,
		governor: governor,
		cooldown: cfg.Cooldown,
		logger:   logger.WithFields(log),
	}
}

func (e *Enricher) WithObserver(o Observer) *Enricher {
	if o != nil {
		e.observer = o
	}
	return e
}

func (e *Enricher) WithSleeper(s utils.Sleeper) *Enricher {
	if s != nil {
		e.sleep = s
	}
	return e
}

// Fetch returns the profile for login, or nil when it is missing, rate
// limited or failed. Rate limits are followed by the cooldown sleep. The only
// error returned is context cancellation.
func (e *Enricher) Fetch(ctx context.Context, login string) (*github.User, error) {
	log := e.logger.With(zap.String(logger.FieldUsername, login))

	if err := e.governor.Admit(ctx); err != nil {
		return nil, err
	}

	res, err := e.client.GetUser(ctx, login)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e.observer.ObserveRequest(endpointUser, github.OutcomeFailed.String())
		log.Debug("error getting user details", zap.Error(err))
		return nil, nil
	}

	e.observer.ObserveRequest(endpointUser, res.Outcome.String())

	switch res.Outcome {
	case github.OutcomeOK:
		return res.User, nil
	case github.OutcomeNotFound:
		log.Debug("user not found")
	case github.OutcomeRateLimited:
		log.Warn("rate limit hit while getting user details, cooling down", zap.Duration("cooldown", e.cooldown))
		if err := e.pause(ctx, "cooldown", e.cooldown); err != nil {
			return nil, err
		}
	default:
		log.Debug("failed to get user details", zap.Int("status", res.Status))
	}

	return nil, nil
}
