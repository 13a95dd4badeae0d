package filtering

import "github.com/spigell/expert-scout/internal/github"

// Candidate is a discovered user moving through the filters. Profile is nil
// until the detail fetch has happened; Score is set by the relevance step.
type Candidate struct {
	Identity github.Identity
	Profile  *github.User
	Score    int
	Location string
}

func (c *Candidate) Login() string {
	return c.Identity.Login
}

type Candidates struct {
	Items []*Candidate
}

// FromIdentities wraps search results found at location.
func FromIdentities(location string, items []github.Identity) *Candidates {
	c := &Candidates{Items: make([]*Candidate, 0, len(items))}
	for _, item := range items {
		c.Items = append(c.Items, &Candidate{Identity: item, Location: location})
	}
	return c
}

func (c *Candidates) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Candidates) Logins() []string {
	logins := make([]string, 0, c.Len())
	for _, item := range c.Items {
		logins = append(logins, item.Login())
	}
	return logins
}

// Exclude removes every candidate for which drop returns true and returns
// their logins. The order of the remaining candidates is preserved.
func (c *Candidates) Exclude(drop func(*Candidate) bool) []string {
	var excluded []string
	kept := c.Items[:0]
	for _, item := range c.Items {
		if drop(item) {
			excluded = append(excluded, item.Login())
			continue
		}
		kept = append(kept, item)
	}
	for i := len(kept); i < len(c.Items); i++ {
		c.Items[i] = nil
	}
	c.Items = kept
	return excluded
}
