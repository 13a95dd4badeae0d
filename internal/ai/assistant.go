// Package ai holds provider-neutral types for the chat forwarder.
package ai

import (
	"context"
	"errors"
)

// Assistant answers a single user message.
type Assistant interface {
	Ask(ctx context.Context, message string) (*Answer, error)
}

type Answer struct {
	Text  string
	Model string
}

// Params are the sampling parameters sent with every message.
type Params struct {
	MaxOutputTokens  int     `mapstructure:"max-output-tokens"`
	Temperature      float32 `mapstructure:"temperature"`
	TopP             float32 `mapstructure:"top-p"`
	TopK             float32 `mapstructure:"top-k"`
	PresencePenalty  float32 `mapstructure:"presence-penalty"`
	FrequencyPenalty float32 `mapstructure:"frequency-penalty"`
}

func DefaultParams() Params {
	return Params{
		MaxOutputTokens: 512,
		Temperature:     0.5,
		TopP:            1,
		TopK:            40,
	}
}

func (p Params) Validate() error {
	switch {
	case p.MaxOutputTokens <= 0:
		return errors.New("max-output-tokens must be positive")
	case p.Temperature < 0 || p.Temperature > 2:
		return errors.New("temperature must be within [0, 2]")
	case p.TopP < 0 || p.TopP > 1:
		return errors.New("top-p must be within [0, 1]")
	case p.TopK < 0:
		return errors.New("top-k must not be negative")
	}
	return nil
}
