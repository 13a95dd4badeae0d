// Package linkedin finds a professional network link for a GitHub profile.
package linkedin

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	DefaultProfileBaseURL = "https://github.com"
	defaultTimeout        = 10 * time.Second
)

// DefaultDomains are the substrings that mark a blog field as a professional link.
var DefaultDomains = []string{"linkedin.com"}

var profilePattern = regexp.MustCompile(`(?i)(https?://)?(www\.)?linkedin\.com/in/[A-Za-z0-9\-_/%]+`)

// anchorSelectors are tried in order on the rendered profile page.
var anchorSelectors = []string{
	`a[href*="linkedin.com/in/"]`,
	`.Link--primary[href*="linkedin.com"]`,
	`.user-profile-link[href*="linkedin.com"]`,
}

const readmeSelector = ".Box-body"

type Config struct {
	Domains        []string      `mapstructure:"domains"`
	ScrapeProfile  bool          `mapstructure:"scrape-profile"`
	ProfileBaseURL string        `mapstructure:"profile-base-url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	UserAgent      string        `mapstructure:"user-agent"`
}

// Resolver derives the external link stored with an expert record.
type Resolver struct {
	cfg       Config
	logger    *zap.Logger
	collector *colly.Collector
}

func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	if len(cfg.Domains) == 0 {
		cfg.Domains = DefaultDomains
	}
	if cfg.ProfileBaseURL == "" {
		cfg.ProfileBaseURL = DefaultProfileBaseURL
	}
	cfg.ProfileBaseURL = strings.TrimRight(cfg.ProfileBaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Resolver{cfg: cfg, logger: logger, collector: c}
}

// Resolve returns the declared blog when it points at a recognised domain.
// Otherwise, if profile scraping is enabled, it looks for a link on the
// rendered GitHub profile page. An empty string means no link was found.
func (r *Resolver) Resolve(ctx context.Context, login, blog string) string {
	if link := FromBlog(blog, r.cfg.Domains); link != "" {
		return link
	}
	if !r.cfg.ScrapeProfile || login == "" {
		return ""
	}

	link, err := r.scrape(ctx, login)
	if err != nil {
		r.logger.Debug("error extracting linkedin from profile page",
			zap.String("username", login),
			zap.Error(err),
		)
		return ""
	}
	return link
}

// FromBlog returns the trimmed blog value if it contains any of domains, case-insensitively.
func FromBlog(blog string, domains []string) string {
	blog = strings.TrimSpace(blog)
	if blog == "" {
		return ""
	}
	lower := strings.ToLower(blog)
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" && strings.Contains(lower, d) {
			return blog
		}
	}
	return ""
}

// ExtractURL finds the first linkedin profile URL in free text and makes it absolute.
func ExtractURL(text string) string {
	match := profilePattern.FindString(text)
	if match == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(match), "http") {
		match = "https://" + match
	}
	return match
}

func (r *Resolver) scrape(ctx context.Context, login string) (string, error) {
	c := r.collector.Clone()
	c.SetRequestTimeout(r.cfg.Timeout)
	c.Context = ctx

	var (
		anchors  = make([][]string, len(anchorSelectors))
		readme   string
		fetchErr error
	)

	for i, selector := range anchorSelectors {
		c.OnHTML(selector, func(e *colly.HTMLElement) {
			if href := strings.TrimSpace(e.Attr("href")); href != "" {
				anchors[i] = append(anchors[i], href)
			}
		})
	}
	c.OnHTML(readmeSelector, func(e *colly.HTMLElement) {
		if readme == "" {
			readme = e.Text
		}
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		fetchErr = err
	})

	if err := c.Visit(r.cfg.ProfileBaseURL + "/" + login); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("visit profile: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if fetchErr != nil {
		return "", fetchErr
	}

	for _, hrefs := range anchors {
		if len(hrefs) > 0 {
			return hrefs[0], nil
		}
	}
	return ExtractURL(readme), nil
}
