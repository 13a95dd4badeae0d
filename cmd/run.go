package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spigell/expert-scout/internal/discovery"
	"github.com/spigell/expert-scout/internal/filtering"
	"github.com/spigell/expert-scout/internal/github"
	"github.com/spigell/expert-scout/internal/linkedin"
	"github.com/spigell/expert-scout/internal/metrics"
	"github.com/spigell/expert-scout/internal/pipeline"
	"github.com/spigell/expert-scout/internal/ratelimit"
	"github.com/spigell/expert-scout/internal/secrets"
	"github.com/spigell/expert-scout/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search GitHub for experts in every domain and store the best ones",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("dry-run", false, "keep records in memory instead of writing them to MongoDB")
	runCmd.Flags().BoolP("include-existing", "f", false, "fetch and overwrite users that are already stored")
	runCmd.Flags().StringP("exclude-file", "e", "", "file with GitHub usernames to skip, one per line. Default is unset.")

	viper.BindPFlag("selection.exclude-file", runCmd.Flags().Lookup("exclude-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	s := newSession("run")
	defer s.close()
	ctx, config, lg := s.ctx, s.config, s.logger

	lg.Info("starting the expert-scout", zap.String("version", resolveVersion()))

	// credentials carry json:"-" so the dump is safe to log
	pretty, _ := json.MarshalIndent(config, "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	includeExisting, _ := cmd.Flags().GetBool("include-existing")

	token, err := resolveGitHubToken(config)
	if err != nil {
		lg.Fatal("loading github token", zap.Error(err),
			zap.String("hint", "set GITHUB_TOKEN or GITHUB_TOKEN_FILE, or github.token-file in the configuration file"),
		)
	}
	if token == "" {
		lg.Warn("running without a github token, search limits are much lower")
	}

	catalog, err := config.Catalog()
	if err != nil {
		lg.Fatal("building domain catalog", zap.Error(err))
	}

	m := startMetrics(ctx, config, lg)

	st, err := openStore(ctx, config, dryRun, lg)
	if err != nil {
		lg.Fatal("[ERROR] could not connect to the database", zap.Error(err))
	}
	defer st.Close(context.Background())

	if err := st.EnsureIndexes(ctx); err != nil {
		lg.Fatal("[ERROR] could not ensure database indexes", zap.Error(err))
	}

	governor := ratelimit.New(config.RateLimit, lg)
	governor.OnWait = m.ObserveWait

	client := github.New(lg, token)
	if config.GitHub.APIURL != "" {
		client.APIURL = config.GitHub.APIURL
	}
	if len(config.GitHub.UserAgents) > 0 {
		client.UserAgents = config.GitHub.UserAgents
	}

	prefetch, postfetch, err := prepareFilters(config.Selection, includeExisting, lg)
	if err != nil {
		lg.Fatal("preparing filters", zap.Error(err))
	}

	runner, err := pipeline.New(config.Pipeline, pipeline.Deps{
		Catalog:   catalog,
		Finder:    discovery.NewFinder(client, governor, config.Discovery, lg).WithObserver(m),
		Enricher:  discovery.NewEnricher(client, governor, config.Discovery, lg).WithObserver(m),
		Links:     linkedin.NewResolver(config.LinkedIn, lg),
		Store:     st,
		Logger:    lg,
		Recorder:  m,
		Prefetch:  prefetch,
		Postfetch: postfetch,
	})
	if err != nil {
		lg.Fatal("creating the pipeline", zap.Error(err))
	}

	summary, err := runner.Run(ctx)
	if summary != nil {
		summary.RunID = s.runID
		summary.Log(lg)
	}

	switch {
	case errors.Is(err, context.Canceled):
		lg.Info("[INTERRUPTED] scraping stopped by user", zap.Int("total_saved", summary.TotalSaved))
	case err != nil:
		lg.Fatal("[ERROR] scraping failed", zap.Error(err))
	}
}

func resolveGitHubToken(config *Config) (string, error) {
	if config == nil || config.GitHub == nil {
		return "", errors.New("config is required")
	}

	return secrets.Optional(secrets.Source{
		Name:  "github token",
		File:  config.GitHub.TokenFile,
		Value: config.GitHub.Token,
	})
}

func openStore(ctx context.Context, config *Config, dryRun bool, lg *zap.Logger) (store.Store, error) {
	if dryRun {
		lg.Info("dry run, records are kept in memory")
		return store.NewMemory(), nil
	}

	uri, err := secrets.Load(secrets.Source{Name: "mongodb uri", Value: config.MongoDB.URI})
	if err != nil {
		return nil, fmt.Errorf("%w (set MONGODB_URI or mongodb.uri)", err)
	}

	return store.Connect(ctx, uri, config.MongoDB.Database, config.MongoDB.Collection, lg)
}

// prepareFilters returns the steps run before and after profile fetches.
func prepareFilters(cfg *SelectionConfig, includeExisting bool, lg *zap.Logger) ([]filtering.Filter, []filtering.Filter, error) {
	prefetch := []filtering.Filter{filtering.NewExcludeList(), filtering.NewExistingRecords(!includeExisting)}
	if !cfg.SkipExisting {
		filtering.DisableByName(prefetch, "existing_records", "selection.skip-existing is false")
	}
	postfetch := []filtering.Filter{filtering.NewActivity(), filtering.NewRelevance()}

	if err := filtering.Validate(&cfg.Config, prefetch); err != nil {
		return nil, nil, err
	}
	if err := filtering.Validate(&cfg.Config, postfetch); err != nil {
		return nil, nil, err
	}

	for _, status := range filtering.Describe(append(append([]filtering.Filter(nil), prefetch...), postfetch...)) {
		lg.Debug("filter configured",
			zap.String("filter", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return prefetch, postfetch, nil
}

// startMetrics registers the collectors and, when an address is configured,
// serves them until ctx is done.
func startMetrics(ctx context.Context, config *Config, lg *zap.Logger) *metrics.Metrics {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		lg.Fatal("registering metrics", zap.Error(err))
	}

	if addr := config.Metrics.Addr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, metrics.NewRouter(reg), lg); err != nil {
				lg.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}
	return m
}
