package pipeline

import "go.uber.org/zap"

// DomainStats counts what happened to one domain during a run.
type DomainStats struct {
	Domain      string `json:"domain"`
	Checked     int    `json:"checked"`
	Candidates  int    `json:"candidates"`
	Saved       int    `json:"saved"`
	WithLink    int    `json:"with_link"`
	WithoutLink int    `json:"without_link"`
}

type Summary struct {
	RunID       string        `json:"run_id"`
	Domains     []DomainStats `json:"domains"`
	TotalSaved  int           `json:"total_saved"`
	Interrupted bool          `json:"interrupted"`
}

// Log writes the final per-domain statistics.
func (s *Summary) Log(logger *zap.Logger) {
	logger.Info("[COMPLETE] scraping complete",
		zap.Int("total_saved", s.TotalSaved),
		zap.Bool("interrupted", s.Interrupted),
	)
	for _, d := range s.Domains {
		logger.Info("[STATS]",
			zap.String("domain", d.Domain),
			zap.Int("saved", d.Saved),
			zap.Int("checked", d.Checked),
			zap.Int("linkedin", d.WithLink),
			zap.Int("github_only", d.WithoutLink),
		)
	}
}
