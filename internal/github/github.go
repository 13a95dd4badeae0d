// Package github is a small client for the GitHub REST user search and profile endpoints.
package github

import (
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL        = "https://api.github.com"
	acceptHeader  = "application/vnd.github+json"
	apiVersion    = "2022-11-28"
	searchPerPage = 30
)

// DefaultUserAgents is the pool a User-Agent is drawn from on every call.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgents []string
	APIURL     string

	// pick returns an index in [0, n). Replaced in tests for deterministic rotation.
	pick func(n int) int
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:     logger,
		UserAgents: DefaultUserAgents,
		pick:       rand.IntN,
	}
}

// WithPicker sets the function used to choose a User-Agent from the pool.
func (c *Client) WithPicker(pick func(n int) int) *Client {
	if pick != nil {
		c.pick = pick
	}
	return c
}

func (c *Client) userAgent() string {
	switch len(c.UserAgents) {
	case 0:
		return DefaultUserAgents[0]
	case 1:
		return c.UserAgents[0]
	default:
		return c.UserAgents[c.pick(len(c.UserAgents))]
	}
}
