package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const includeFlagSetMsg = "include-existing flag is set"

type existingRecordsFilter struct {
	enabled bool
	reason  string
}

// NewExistingRecords creates a filter that drops usernames already present
// in the store, so their profiles are not fetched again.
func NewExistingRecords(enabled bool) Filter {
	f := &existingRecordsFilter{enabled: true}
	if !enabled {
		f.Disable(includeFlagSetMsg)
	}
	return f
}

func (f *existingRecordsFilter) Name() string { return "existing_records" }

func (f *existingRecordsFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *existingRecordsFilter) IsEnabled() bool { return f.enabled }

func (f *existingRecordsFilter) Validate(*Config) error { return nil }

func (f *existingRecordsFilter) Apply(ctx context.Context, deps Deps, c *Candidates) (*Candidates, Step, error) {
	initial := c.Len()
	if deps.Store == nil {
		return c, Step{}, fmt.Errorf("store is required")
	}

	stored := make(map[string]bool, c.Len())
	for _, item := range c.Items {
		exists, err := deps.Store.Exists(ctx, item.Login())
		if err != nil {
			return c, Step{}, fmt.Errorf("check stored username %s: %w", item.Login(), err)
		}
		stored[item.Login()] = exists
	}

	excluded := c.Exclude(func(item *Candidate) bool { return stored[item.Login()] })
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding usernames already stored",
			zap.Strings("excluded_usernames", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *existingRecordsFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"skip_existing": strconv.FormatBool(f.enabled)},
	}
}
