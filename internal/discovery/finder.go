package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/expert-scout/internal/domains"
	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/logger"
	"github.com/spigell/expert-scout/internal/utils"
	"go.uber.org/zap"
)

// Finder turns a (location, domain, page) triple into a deduplicated list of identities.
type Finder struct {
	pacer

	client   Searcher
	governor Admitter
	cfg      Config
	logger   *zap.Logger
}

func NewFinder(client Searcher, governor Admitter, cfg Config, log *zap.Logger) *Finder {
	return &Finder{
		pacer:    newPacer(),
		client:   client,
		governor: governor,
		cfg:      cfg.withDefaults(),
		logger:   logger.WithFields(log),
	}
}

func (f *Finder) WithObserver(o Observer) *Finder {
	if o != nil {
		f.observer = o
	}
	return f
}

func (f *Finder) WithSleeper(s utils.Sleeper) *Finder {
	if s != nil {
		f.sleep = s
	}
	return f
}

// Queries returns the search strings issued for one location and domain:
// the domain label itself, then the leading bio keywords joined with OR.
func Queries(location string, spec domains.Spec, keywordTerms int) []string {
	loc := locationQualifier(location)
	queries := []string{fmt.Sprintf("%s %s", loc, spec.Label)}
	if kw := spec.KeywordQuery(keywordTerms); kw != "" {
		queries = append(queries, fmt.Sprintf("%s %s", loc, kw))
	}
	return queries
}

func locationQualifier(location string) string {
	location = strings.TrimSpace(location)
	if strings.ContainsAny(location, " \t") {
		return fmt.Sprintf("location:%q", location)
	}
	return "location:" + location
}

// Find runs every query for the page and returns identities in discovery
// order, first occurrence wins. A rate-limited query abandons the page and
// yields no identities. The only error returned is context cancellation.
func (f *Finder) Find(ctx context.Context, location string, spec domains.Spec, page int) ([]github.Identity, error) {
	log := f.logger.With(logger.SearchFields(spec.Label, location)...)

	var found []github.Identity
	for _, query := range Queries(location, spec, f.cfg.KeywordTerms) {
		if err := f.governor.Admit(ctx); err != nil {
			return nil, err
		}

		res, err := f.client.SearchUsers(ctx, github.SearchParams{
			Query:   query,
			PerPage: f.cfg.PerPage,
			Page:    page,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			f.observer.ObserveRequest(endpointSearch, github.OutcomeFailed.String())
			log.Error("error searching users", zap.String("query", query), zap.Error(err))
			if err := f.pause(ctx, "error", f.cfg.ErrorPause); err != nil {
				return nil, err
			}
			continue
		}

		f.observer.ObserveRequest(endpointSearch, res.Outcome.String())

		switch res.Outcome {
		case github.OutcomeOK:
			log.Info("found users for query", zap.String("query", query), zap.Int("count", len(res.Items)), zap.Int("page", page))
			found = append(found, res.Items...)
		case github.OutcomeRateLimited:
			log.Warn("rate limit hit while searching, cooling down",
				zap.String("query", query),
				zap.Duration("cooldown", f.cfg.Cooldown),
			)
			if err := f.pause(ctx, "cooldown", f.cfg.Cooldown); err != nil {
				return nil, err
			}
			return nil, nil
		case github.OutcomeInvalidQuery:
			log.Warn("invalid query", zap.String("query", query))
		default:
			log.Warn("search failed", zap.String("query", query), zap.Int("status", res.Status))
		}
	}

	return Dedup(found), nil
}

// Dedup drops repeated logins, keeping the first occurrence and the original order.
func Dedup(items []github.Identity) []github.Identity {
	seen := make(map[string]struct{}, len(items))
	out := make([]github.Identity, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.Login]; ok {
			continue
		}
		seen[item.Login] = struct{}{}
		out = append(out, item)
	}
	return out
}
