package filtering

import (
	"context"
	"errors"
	"strconv"

	"github.com/spigell/expert-scout/internal/scoring"
	"go.uber.org/zap"
)

const DefaultRelaxedScore = 25

type relevanceFilter struct {
	threshold int
}

// NewRelevance creates the scoring step. Every candidate gets a score; those
// whose bio matches no domain keyword are kept only if the score reaches
// the relaxed threshold.
func NewRelevance() Filter {
	return &relevanceFilter{threshold: DefaultRelaxedScore}
}

func (f *relevanceFilter) Name() string { return "relevance" }

func (f *relevanceFilter) Disable(string) {}

func (f *relevanceFilter) IsEnabled() bool { return true }

func (f *relevanceFilter) Validate(cfg *Config) error {
	f.threshold = DefaultRelaxedScore
	if cfg == nil {
		return nil
	}
	if cfg.RelaxedScore < 0 || cfg.RelaxedScore > scoring.MaxScore {
		return errors.New("relaxed score threshold must be within [0, 100]")
	}
	f.threshold = cfg.RelaxedScore
	return nil
}

func (f *relevanceFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	excluded := c.Exclude(func(item *Candidate) bool {
		if item.Profile == nil {
			return true
		}
		item.Score = scoring.Score(item.Profile, deps.Spec)
		if scoring.IsRelevant(item.Profile, deps.Spec) || item.Score >= f.threshold {
			return false
		}
		if deps.Logger != nil {
			deps.Logger.Debug("[SKIP] not relevant to domain",
				zap.String("username", item.Login()),
				zap.String("domain", deps.Spec.Label),
				zap.Int("score", item.Score),
			)
		}
		return true
	})

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *relevanceFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"relaxed_score_threshold": strconv.Itoa(f.threshold)},
	}
}
