package cmd

import (
	"github.com/spigell/expert-scout/internal/wikipedia"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var wikipediaCmd = &cobra.Command{
	Use:   "wikipedia",
	Short: "Collect people from Wikipedia category pages into a JSON file",
	Run: func(_ *cobra.Command, _ []string) {
		scrapeWikipedia()
	},
}

func init() {
	rootCmd.AddCommand(wikipediaCmd)

	wikipediaCmd.Flags().StringP("output", "o", "", "file to write the collected entries to (default is experts_data.json)")

	viper.BindPFlag("wikipedia.output", wikipediaCmd.Flags().Lookup("output"))
}

func scrapeWikipedia() {
	s := newSession("wikipedia")
	defer s.close()
	ctx, config, lg := s.ctx, s.config, s.logger

	m := startMetrics(ctx, config, lg)
	scraper := wikipedia.New(config.Wikipedia, lg)

	experts, err := scraper.Scrape(ctx)
	if err != nil {
		lg.Warn("[INTERRUPTED] scraping stopped, writing what was collected", zap.Error(err))
	}

	perDomain := make(map[string]int)
	for _, e := range experts {
		perDomain[e.Domain]++
	}
	for _, domain := range scraper.Domains() {
		m.ObserveWikipedia(domain, perDomain[domain])
	}

	output := config.Wikipedia.Output
	if output == "" {
		output = wikipedia.DefaultOutput
	}
	if err := wikipedia.WriteFile(output, experts); err != nil {
		lg.Fatal("saving experts", zap.Error(err))
	}

	lg.Info("saved experts", zap.Int("count", len(experts)), zap.String("file", output))
}
