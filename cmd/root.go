package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/spigell/expert-scout/internal/ai/gemini"
	"github.com/spigell/expert-scout/internal/discovery"
	"github.com/spigell/expert-scout/internal/domains"
	"github.com/spigell/expert-scout/internal/filtering"
	"github.com/spigell/expert-scout/internal/importer"
	"github.com/spigell/expert-scout/internal/linkedin"
	"github.com/spigell/expert-scout/internal/pipeline"
	"github.com/spigell/expert-scout/internal/ratelimit"
	"github.com/spigell/expert-scout/internal/store"
	"github.com/spigell/expert-scout/internal/wikipedia"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "expert-scout"
	envPrefix = "EXPERT_SCOUT"

	defaultLogFile = "expert_scout.log"
)

type Config struct {
	GitHub    *GitHubConfig    `mapstructure:"github"`
	MongoDB   *MongoConfig     `mapstructure:"mongodb"`
	RateLimit ratelimit.Config `mapstructure:"rate-limit"`
	Discovery discovery.Config `mapstructure:"discovery"`
	Pipeline  pipeline.Config  `mapstructure:"pipeline"`
	Selection *SelectionConfig `mapstructure:"selection"`
	LinkedIn  linkedin.Config  `mapstructure:"linkedin"`
	Domains   []domains.Spec   `mapstructure:"domains"`
	Wikipedia wikipedia.Config `mapstructure:"wikipedia"`
	Chat      *ChatConfig      `mapstructure:"chat"`
	LogFile   string           `mapstructure:"log-file"`
	Metrics   *MetricsConfig   `mapstructure:"metrics"`
}

type GitHubConfig struct {
	Token      string   `mapstructure:"token" json:"-"`
	TokenFile  string   `mapstructure:"token-file"`
	APIURL     string   `mapstructure:"api-url"`
	UserAgents []string `mapstructure:"user-agents"`
}

type MongoConfig struct {
	URI              string `mapstructure:"uri" json:"-"`
	Database         string `mapstructure:"database"`
	Collection       string `mapstructure:"collection"`
	ImportCollection string `mapstructure:"import-collection"`
}

type SelectionConfig struct {
	filtering.Config `mapstructure:",squash"`
	// SkipExisting drops already stored usernames before their profiles are fetched.
	SkipExisting bool `mapstructure:"skip-existing"`
}

type ChatConfig struct {
	APIKey     string        `mapstructure:"api-key" json:"-"`
	APIKeyFile string        `mapstructure:"api-key-file"`
	Gemini     gemini.Config `mapstructure:"gemini"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "expert-scout finds domain experts on GitHub and Wikipedia and stores them in MongoDB",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	setDefaults(viper.GetViper())

	if err := bindEnv(viper.GetViper()); err != nil {
		log.Fatalf("binding environment variables: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is expert-scout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
}

func setDefaults(v *viper.Viper) {
	rl := ratelimit.DefaultConfig()
	v.SetDefault("rate-limit.window", rl.Window)
	v.SetDefault("rate-limit.max-requests", rl.Ceiling)
	v.SetDefault("rate-limit.delay", rl.Delay)
	v.SetDefault("rate-limit.margin", rl.Margin)

	d := discovery.DefaultConfig()
	v.SetDefault("discovery.per-page", d.PerPage)
	v.SetDefault("discovery.keyword-terms", d.KeywordTerms)
	v.SetDefault("discovery.cooldown", d.Cooldown)
	v.SetDefault("discovery.error-pause", d.ErrorPause)

	p := pipeline.DefaultConfig()
	v.SetDefault("pipeline.locations", p.Locations)
	v.SetDefault("pipeline.max-total", p.MaxTotal)
	v.SetDefault("pipeline.max-per-domain", p.MaxPerDomain)
	v.SetDefault("pipeline.max-profiles-to-check", p.MaxProfilesToCheck)
	v.SetDefault("pipeline.max-pages-per-search", p.MaxPagesPerSearch)

	v.SetDefault("selection.min-followers", filtering.DefaultMinFollowers)
	v.SetDefault("selection.min-public-repos", filtering.DefaultMinPublicRepos)
	v.SetDefault("selection.relaxed-score-threshold", filtering.DefaultRelaxedScore)
	v.SetDefault("selection.exclude-file", "")
	v.SetDefault("selection.skip-existing", true)

	v.SetDefault("github.token", "")
	v.SetDefault("github.token-file", "")
	v.SetDefault("github.api-url", "")

	v.SetDefault("mongodb.uri", "")
	v.SetDefault("mongodb.database", store.DefaultDatabase)
	v.SetDefault("mongodb.collection", store.DefaultCollection)
	v.SetDefault("mongodb.import-collection", importer.DefaultCollection)

	v.SetDefault("linkedin.domains", linkedin.DefaultDomains)
	v.SetDefault("linkedin.scrape-profile", false)
	v.SetDefault("linkedin.profile-base-url", linkedin.DefaultProfileBaseURL)

	w := wikipedia.DefaultConfig()
	v.SetDefault("wikipedia.base-url", w.BaseURL)
	v.SetDefault("wikipedia.output", w.Output)
	v.SetDefault("wikipedia.timeout", w.Timeout)

	g := gemini.DefaultConfig()
	v.SetDefault("chat.api-key", "")
	v.SetDefault("chat.api-key-file", "")
	v.SetDefault("chat.gemini.model", g.Model)
	v.SetDefault("chat.gemini.max-retries", g.MaxRetries)
	v.SetDefault("chat.gemini.max-log-length", g.MaxLogLength)
	v.SetDefault("chat.gemini.params.max-output-tokens", g.Params.MaxOutputTokens)
	v.SetDefault("chat.gemini.params.temperature", g.Params.Temperature)
	v.SetDefault("chat.gemini.params.top-p", g.Params.TopP)
	v.SetDefault("chat.gemini.params.top-k", g.Params.TopK)
	v.SetDefault("chat.gemini.params.presence-penalty", g.Params.PresencePenalty)
	v.SetDefault("chat.gemini.params.frequency-penalty", g.Params.FrequencyPenalty)

	v.SetDefault("log-file", defaultLogFile)
	v.SetDefault("metrics.addr", "")
}

// bindEnv maps EXPERT_SCOUT_<KEY> for every key and the conventional
// unprefixed names for credentials.
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"github.token":      {envPrefix + "_GITHUB_TOKEN", "GITHUB_TOKEN"},
		"github.token-file": {envPrefix + "_GITHUB_TOKEN_FILE", "GITHUB_TOKEN_FILE"},
		"mongodb.uri":       {envPrefix + "_MONGODB_URI", "MONGODB_URI"},
		"chat.api-key":      {envPrefix + "_CHAT_API_KEY", "GEMINI_API_KEY"},
		"chat.api-key-file": {envPrefix + "_CHAT_API_KEY_FILE", "GEMINI_API_KEY_FILE"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The default config file is optional, an explicit one is not.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.GitHub == nil {
		c.GitHub = &GitHubConfig{}
	}
	if c.MongoDB == nil {
		c.MongoDB = &MongoConfig{}
	}
	if c.Selection == nil {
		c.Selection = &SelectionConfig{SkipExisting: true}
	}
	if c.Chat == nil {
		c.Chat = &ChatConfig{Gemini: gemini.DefaultConfig()}
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.RateLimit.Ceiling < 0 {
		return errors.New("rate-limit.max-requests must not be negative")
	}
	if _, err := c.Catalog(); err != nil {
		return fmt.Errorf("domains: %w", err)
	}
	return nil
}

// Catalog returns the configured domains, or the built-in catalog when none are set.
func (c *Config) Catalog() (*domains.Catalog, error) {
	if len(c.Domains) == 0 {
		return domains.Default(), nil
	}
	return domains.New(c.Domains)
}
