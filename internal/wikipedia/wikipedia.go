// Package wikipedia collects people listed on Wikipedia category pages.
package wikipedia

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://en.wikipedia.org"
	DefaultOutput  = "experts_data.json"

	defaultTimeout = 20 * time.Second
)

// Category list containers, in order of preference.
const (
	categorySelector = "div.mw-category"
	pagesSelector    = "div#mw-pages"
)

// DefaultCategories maps a domain label to its category page.
func DefaultCategories() map[string]string {
	return map[string]string{
		"Web Developers":        "https://en.wikipedia.org/wiki/Category:Web_developers",
		"Cybersecurity Experts": "https://en.wikipedia.org/wiki/Category:Computer_security_experts",
		"AI Researchers":        "https://en.wikipedia.org/wiki/Category:Artificial_intelligence_researchers",
		"Software Engineers":    "https://en.wikipedia.org/wiki/Category:Software_engineers",
		"UI/UX Designers":       "https://en.wikipedia.org/wiki/Category:User_interface_designers",
	}
}

// Expert is a person linked from a category page.
type Expert struct {
	Name         string `json:"name" bson:"name"`
	Domain       string `json:"domain" bson:"domain"`
	WikipediaURL string `json:"wikipedia_url" bson:"wikipedia_url"`
}

type Config struct {
	Categories map[string]string `mapstructure:"categories"`
	// BaseURL prefixes the relative /wiki/ links found on category pages.
	BaseURL   string        `mapstructure:"base-url"`
	Output    string        `mapstructure:"output"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Categories: DefaultCategories(),
		BaseURL:    DefaultBaseURL,
		Output:     DefaultOutput,
		Timeout:    defaultTimeout,
	}
}

type Scraper struct {
	cfg       Config
	logger    *zap.Logger
	collector *colly.Collector
}

func New(cfg Config, logger *zap.Logger) *Scraper {
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector()
	c.AllowURLRevisit = true
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Scraper{cfg: cfg, logger: logger, collector: c}
}

// Domains returns the configured domain labels in sorted order.
func (s *Scraper) Domains() []string {
	labels := make([]string, 0, len(s.cfg.Categories))
	for label := range s.cfg.Categories {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Scrape visits every category page. A page that fails to load or has no
// list is logged and skipped; only cancellation stops the walk.
func (s *Scraper) Scrape(ctx context.Context) ([]Expert, error) {
	var all []Expert
	for _, domain := range s.Domains() {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		log := s.logger.With(zap.String("domain", domain))
		log.Info("scraping category")

		experts, err := s.Category(ctx, domain, s.cfg.Categories[domain])
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			log.Warn("could not scrape category", zap.Error(err))
			continue
		}
		if len(experts) == 0 {
			log.Warn("could not find content for domain")
			continue
		}

		for _, e := range experts {
			log.Debug("added", zap.String("name", e.Name))
		}
		log.Info("category scraped", zap.Int("experts", len(experts)))
		all = append(all, experts...)
	}
	return all, nil
}

// Category returns the people listed on a single category page.
func (s *Scraper) Category(ctx context.Context, domain, pageURL string) ([]Expert, error) {
	c := s.collector.Clone()
	c.SetRequestTimeout(s.cfg.Timeout)
	// Requests abort with ctx, so Visit returns once callbacks are done.
	c.Context = ctx

	var (
		experts  []Expert
		fetchErr error
	)

	c.OnHTML("body", func(e *colly.HTMLElement) {
		links := e.DOM.Find(categorySelector).First()
		if links.Length() == 0 {
			links = e.DOM.Find(pagesSelector).First()
		}
		links.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || !strings.HasPrefix(href, "/wiki/") {
				return
			}
			experts = append(experts, Expert{
				Name:         a.Text(),
				Domain:       domain,
				WikipediaURL: s.cfg.BaseURL + href,
			})
		})
	})
	c.OnError(func(resp *colly.Response, err error) {
		if resp != nil && resp.StatusCode != 0 {
			err = fmt.Errorf("status %d: %w", resp.StatusCode, err)
		}
		fetchErr = err
	})

	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return nil, fmt.Errorf("category url %q: %w", pageURL, err)
	}

	if err := c.Visit(pageURL); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return experts, nil
}
