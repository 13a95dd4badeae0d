// Package pipeline drives discovery, scoring and persistence across the
// domain catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/spigell/expert-scout/internal/domains"
	"github.com/spigell/expert-scout/internal/filtering"
	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/logger"
	"github.com/spigell/expert-scout/internal/metrics"
	"github.com/spigell/expert-scout/internal/store"
	"go.uber.org/zap"
)

type Finder interface {
	Find(ctx context.Context, location string, spec domains.Spec, page int) ([]github.Identity, error)
}

type Enricher interface {
	Fetch(ctx context.Context, login string) (*github.User, error)
}

type LinkResolver interface {
	Resolve(ctx context.Context, login, blog string) string
}

// Recorder receives per-stage counters. *metrics.Metrics implements it.
type Recorder interface {
	ObserveStage(domain, stage string)
	ObserveSaved(domain string, hasLink bool)
}

// Deps are the collaborators of a Runner.
type Deps struct {
	Catalog  *domains.Catalog
	Finder   Finder
	Enricher Enricher
	Links    LinkResolver
	Store    store.Store
	Logger   *zap.Logger
	Recorder Recorder

	// Prefetch filters run on search results before any profile is fetched.
	Prefetch []filtering.Filter
	// Postfetch filters run on fetched profiles and assign scores.
	Postfetch []filtering.Filter
}

type Runner struct {
	cfg  Config
	deps Deps

	logger  *zap.Logger
	shuffle func([]string)
	now     func() time.Time

	seen map[string]struct{}
}

func New(cfg Config, deps Deps) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Catalog == nil:
		return nil, errors.New("domain catalog is required")
	case deps.Finder == nil:
		return nil, errors.New("finder is required")
	case deps.Enricher == nil:
		return nil, errors.New("enricher is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	}
	if deps.Links == nil {
		deps.Links = noLinks{}
	}
	if deps.Recorder == nil {
		deps.Recorder = (*metrics.Metrics)(nil)
	}

	return &Runner{
		cfg:    cfg,
		deps:   deps,
		logger: logger.WithFields(deps.Logger),
		shuffle: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
		now:  time.Now,
		seen: make(map[string]struct{}),
	}, nil
}

// WithShuffle replaces the per-domain location shuffle.
func (r *Runner) WithShuffle(shuffle func([]string)) *Runner {
	if shuffle != nil {
		r.shuffle = shuffle
	}
	return r
}

// WithClock replaces the capture timestamp source.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	if now != nil {
		r.now = now
	}
	return r
}

// domainPanic is a recovered panic from a single domain traversal.
type domainPanic struct {
	value any
	stack []byte
}

func (p *domainPanic) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

// Run traverses every domain in catalog order until done, the global cap is
// reached or ctx ends. The summary is returned even when err is non-nil.
// A store failure is fatal; a panic inside one domain is logged and the run
// moves on to the next domain.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	r.logger.Info("starting github expert scrape",
		zap.Int("max_total", r.cfg.MaxTotal),
		zap.Int("max_per_domain", r.cfg.MaxPerDomain),
		zap.Int("domains", r.deps.Catalog.Len()),
		zap.Strings("locations", r.cfg.Locations),
	)

	for _, spec := range r.deps.Catalog.All() {
		if summary.TotalSaved >= r.cfg.MaxTotal {
			r.logger.Info("global cap reached", zap.Int("total_saved", summary.TotalSaved))
			break
		}

		stats, err := r.runDomain(ctx, spec, summary.TotalSaved)
		summary.Domains = append(summary.Domains, stats)
		summary.TotalSaved += stats.Saved

		if err == nil {
			continue
		}

		var p *domainPanic
		switch {
		case ctx.Err() != nil:
			summary.Interrupted = true
			return summary, ctx.Err()
		case errors.As(err, &p):
			r.logger.Error("[ERROR] unexpected error while processing domain, continuing",
				zap.String("domain", spec.Label),
				zap.Any("panic", p.value),
				zap.ByteString("stack", p.stack),
			)
		default:
			return summary, fmt.Errorf("domain %q: %w", spec.Label, err)
		}
	}

	return summary, nil
}

func (r *Runner) runDomain(ctx context.Context, spec domains.Spec, savedSoFar int) (stats DomainStats, err error) {
	stats.Domain = spec.Label
	log := r.logger.With(zap.String(logger.FieldDomain, spec.Label))

	defer func() {
		if v := recover(); v != nil {
			err = &domainPanic{value: v, stack: debug.Stack()}
		}
	}()

	log.Info("[DOMAIN] processing")

	pool, err := r.collect(ctx, spec, &stats, log)
	if err != nil {
		return stats, err
	}

	stats.Candidates = len(pool)
	log.Info("[RESULTS] candidates found", zap.Int("candidates", len(pool)))

	Rank(pool)

	for _, c := range pool {
		if stats.Saved >= r.cfg.MaxPerDomain || savedSoFar+stats.Saved >= r.cfg.MaxTotal {
			break
		}

		rec := r.record(ctx, spec, c)
		if err := r.deps.Store.Upsert(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			return stats, err
		}

		stats.Saved++
		if rec.HasLinkedIn {
			stats.WithLink++
		} else {
			stats.WithoutLink++
		}
		r.deps.Recorder.ObserveSaved(spec.Label, rec.HasLinkedIn)

		log.Info("[SAVED]",
			zap.String(logger.FieldUsername, rec.Username),
			zap.Int("score", rec.Score),
			zap.String(logger.FieldLocation, c.Location),
			zap.Bool("has_linkedin", rec.HasLinkedIn),
		)
	}

	log.Info("[SUMMARY]",
		zap.Int("linkedin", stats.WithLink),
		zap.Int("github_only", stats.WithoutLink),
		zap.Int("checked", stats.Checked),
	)

	return stats, nil
}

// collect walks locations and pages for one domain and returns every
// candidate that survived the filters, in encounter order.
func (r *Runner) collect(ctx context.Context, spec domains.Spec, stats *DomainStats, log *zap.Logger) ([]*filtering.Candidate, error) {
	deps := filtering.Deps{Logger: log, Spec: spec, Store: r.deps.Store}

	locations := append([]string(nil), r.cfg.Locations...)
	r.shuffle(locations)

	var pool []*filtering.Candidate
	for _, location := range locations {
		if stats.Checked >= r.cfg.MaxProfilesToCheck {
			break
		}

		locLog := log.With(zap.String(logger.FieldLocation, location))
		locLog.Info("[SEARCH] searching")

		for page := 1; page <= r.cfg.MaxPagesPerSearch; page++ {
			if stats.Checked >= r.cfg.MaxProfilesToCheck {
				break
			}

			found, err := r.deps.Finder.Find(ctx, location, spec, page)
			if err != nil {
				return pool, err
			}
			if len(found) == 0 {
				locLog.Info("no more users found", zap.Int("page", page))
				break
			}

			batch := filtering.FromIdentities(location, found)
			batch.Exclude(func(c *filtering.Candidate) bool {
				_, ok := r.seen[c.Login()]
				return ok
			})

			batch, err = filtering.Run(ctx, deps, r.deps.Prefetch, batch)
			if err != nil {
				return pool, err
			}

			enriched, err := r.enrich(ctx, spec, batch, stats)
			if err != nil {
				return pool, err
			}

			kept, err := filtering.Run(ctx, deps, r.deps.Postfetch, enriched)
			if err != nil {
				return pool, err
			}

			for _, c := range kept.Items {
				r.deps.Recorder.ObserveStage(spec.Label, metrics.StageCandidate)
				locLog.Info("[CANDIDATE]",
					zap.String(logger.FieldUsername, c.Login()),
					zap.Int("score", c.Score),
					zap.Int("followers", c.Profile.Followers),
					zap.Int("public_repos", c.Profile.PublicRepos),
				)
			}
			pool = append(pool, kept.Items...)
		}
	}

	return pool, nil
}

func (r *Runner) enrich(ctx context.Context, spec domains.Spec, batch *filtering.Candidates, stats *DomainStats) (*filtering.Candidates, error) {
	enriched := &filtering.Candidates{Items: make([]*filtering.Candidate, 0, batch.Len())}
	for _, c := range batch.Items {
		if stats.Checked >= r.cfg.MaxProfilesToCheck {
			break
		}

		r.seen[c.Login()] = struct{}{}

		profile, err := r.deps.Enricher.Fetch(ctx, c.Login())
		if err != nil {
			return enriched, err
		}

		stats.Checked++
		r.deps.Recorder.ObserveStage(spec.Label, metrics.StageChecked)

		if profile == nil {
			continue
		}
		c.Profile = profile
		enriched.Items = append(enriched.Items, c)
	}
	return enriched, nil
}

func (r *Runner) record(ctx context.Context, spec domains.Spec, c *filtering.Candidate) store.Record {
	p := c.Profile
	login := c.Login()

	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = login
	}
	location := strings.TrimSpace(p.Location)
	if location == "" {
		location = c.Location
	}

	link := r.deps.Links.Resolve(ctx, login, p.Blog)

	return store.Record{
		Name:        name,
		Username:    login,
		Location:    location,
		ProfileURL:  p.HTMLURL,
		Avatar:      p.AvatarURL,
		Domain:      spec.Label,
		LinkedInURL: link,
		About:       p.Bio,
		Followers:   p.Followers,
		PublicRepos: p.PublicRepos,
		Score:       c.Score,
		ScrapedAt:   r.now().UTC(),
		HasLinkedIn: link != "",
	}
}

// Rank orders candidates by score, highest first. Equal scores keep their
// encounter order.
func Rank(candidates []*filtering.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

type noLinks struct{}

func (noLinks) Resolve(context.Context, string, string) string { return "" }
