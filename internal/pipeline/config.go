package pipeline

import (
	"errors"
	"strings"
)

const (
	DefaultMaxTotal           = 120
	DefaultMaxPerDomain       = 10
	DefaultMaxProfilesToCheck = 80
	DefaultMaxPagesPerSearch  = 3
)

// DefaultLocations are searched for every domain, in a per-domain shuffled order.
var DefaultLocations = []string{"karnataka", "mysuru", "dharwad", "bengaluru", "bangalore", "mangalore", "hubli"}

// Config holds the traversal limits of a run.
type Config struct {
	Locations []string `mapstructure:"locations"`
	// MaxTotal caps records saved across all domains.
	MaxTotal     int `mapstructure:"max-total"`
	MaxPerDomain int `mapstructure:"max-per-domain"`
	// MaxProfilesToCheck caps detail fetches per domain.
	MaxProfilesToCheck int `mapstructure:"max-profiles-to-check"`
	MaxPagesPerSearch  int `mapstructure:"max-pages-per-search"`
}

func DefaultConfig() Config {
	return Config{
		Locations:          append([]string(nil), DefaultLocations...),
		MaxTotal:           DefaultMaxTotal,
		MaxPerDomain:       DefaultMaxPerDomain,
		MaxProfilesToCheck: DefaultMaxProfilesToCheck,
		MaxPagesPerSearch:  DefaultMaxPagesPerSearch,
	}
}

func (c *Config) Validate() error {
	locations := make([]string, 0, len(c.Locations))
	for _, loc := range c.Locations {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}
	c.Locations = locations

	switch {
	case len(c.Locations) == 0:
		return errors.New("at least one location is required")
	case c.MaxTotal <= 0:
		return errors.New("max-total must be positive")
	case c.MaxPerDomain <= 0:
		return errors.New("max-per-domain must be positive")
	case c.MaxProfilesToCheck <= 0:
		return errors.New("max-profiles-to-check must be positive")
	case c.MaxPagesPerSearch <= 0:
		return errors.New("max-pages-per-search must be positive")
	}
	return nil
}
