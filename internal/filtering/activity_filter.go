package filtering

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

const (
	DefaultMinFollowers   = 5
	DefaultMinPublicRepos = 10
)

type activityFilter struct {
	minFollowers int
	minRepos     int
}

// NewActivity creates a filter that drops profiles below the follower or
// public repository thresholds. It runs before scoring.
func NewActivity() Filter {
	return &activityFilter{}
}

func (f *activityFilter) Name() string { return "activity" }

func (f *activityFilter) Disable(string) {}

func (f *activityFilter) IsEnabled() bool { return true }

func (f *activityFilter) Validate(cfg *Config) error {
	f.minFollowers, f.minRepos = DefaultMinFollowers, DefaultMinPublicRepos
	if cfg == nil {
		return nil
	}
	if cfg.MinFollowers < 0 || cfg.MinPublicRepos < 0 {
		return errors.New("activity thresholds must not be negative")
	}
	f.minFollowers, f.minRepos = cfg.MinFollowers, cfg.MinPublicRepos
	return nil
}

func (f *activityFilter) Apply(_ context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()

	excluded := c.Exclude(func(item *Candidate) bool {
		p := item.Profile
		if p == nil {
			return true
		}
		if p.Followers < f.minFollowers || p.PublicRepos < f.minRepos {
			if deps.Logger != nil {
				deps.Logger.Debug("[SKIP] below activity thresholds",
					zap.String("username", item.Login()),
					zap.Int("followers", p.Followers),
					zap.Int("public_repos", p.PublicRepos),
				)
			}
			return true
		}
		return false
	})

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *activityFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{
			"min_followers":    strconv.Itoa(f.minFollowers),
			"min_public_repos": strconv.Itoa(f.minRepos),
		},
	}
}
