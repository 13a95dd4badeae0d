// Package gemini forwards chat messages to the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/expert-scout/internal/ai"
	"github.com/spigell/expert-scout/internal/logger"
	"github.com/spigell/expert-scout/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-flash"
	defaultMaxRetries = 2
	defaultMaxLogLen  = 200

	retryPause = 2 * time.Second
	// maxQuotaDelay is the longest server-requested delay worth waiting for.
	maxQuotaDelay = 10 * time.Second
)

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// models is the subset of genai.Models used here.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	Model        string    `mapstructure:"model"`
	MaxRetries   int       `mapstructure:"max-retries"`
	MaxLogLength int       `mapstructure:"max-log-length"`
	Params       ai.Params `mapstructure:"params"`
}

func DefaultConfig() Config {
	return Config{
		Model:        defaultModel,
		MaxRetries:   defaultMaxRetries,
		MaxLogLength: defaultMaxLogLen,
		Params:       ai.DefaultParams(),
	}
}

// Generator sends one message per call and returns the concatenated answer.
type Generator struct {
	models     models
	model      string
	params     ai.Params
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
	sleep      utils.Sleeper
}

// NewGenerator creates a Generator for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, cfg, log)
}

func newGenerator(m models, cfg Config, log *zap.Logger) (*Generator, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLen
	}

	return &Generator{
		models:     m,
		model:      cfg.Model,
		params:     cfg.Params,
		maxRetries: cfg.MaxRetries,
		maxLogLen:  cfg.MaxLogLength,
		logger:     logger.WithFields(log, logger.AIFields("gemini", cfg.Model)...),
		sleep:      utils.WaitFor,
	}, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Ask sends message as a single user turn. Temporary API failures are retried
// up to the configured attempt count.
func (g *Generator) Ask(ctx context.Context, message string) (*ai.Answer, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message must not be empty")
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, g.maxLogLen)),
	)

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(message), g.contentConfig())
		if err == nil {
			text, err := responseText(resp)
			if err != nil {
				return nil, err
			}
			g.logger.Debug("gemini generate content response",
				zap.Int("response_length", utf8.RuneCountInString(text)),
				zap.String("response_preview", utils.TruncateForLog(text, g.maxLogLen)),
			)
			return &ai.Answer{Text: text, Model: g.model}, nil
		}

		lastErr = fmt.Errorf("generate content: %w", err)
		delay, retry := retryDelay(err)
		if !retry || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("temporary gemini error, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := g.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func (g *Generator) contentConfig() *genai.GenerateContentConfig {
	p := g.params
	return &genai.GenerateContentConfig{
		MaxOutputTokens:  int32(p.MaxOutputTokens),
		Temperature:      genai.Ptr(p.Temperature),
		TopP:             genai.Ptr(p.TopP),
		TopK:             genai.Ptr(p.TopK),
		PresencePenalty:  genai.Ptr(p.PresencePenalty),
		FrequencyPenalty: genai.Ptr(p.FrequencyPenalty),
	}
}

// retryDelay reports whether err is worth another attempt and how long to wait.
// The pause is fixed unless the server asks for a short delay.
func retryDelay(err error) (time.Duration, bool) {
	apiErr, ok := asAPIError(err)
	if !ok {
		return 0, false
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if d, found := quotaDelay(apiErr.Message); found {
			return d, d <= maxQuotaDelay
		}
		return retryPause, true
	case apiErr.Code >= http.StatusInternalServerError:
		return retryPause, true
	default:
		return 0, false
	}
}

func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

func quotaDelay(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("gemini api returned no response")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}
	return output, nil
}
