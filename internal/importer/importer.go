// Package importer loads scraped Wikipedia entries into the document store.
package importer

import (
	"context"
	"fmt"

	"github.com/spigell/expert-scout/internal/store"
	"github.com/spigell/expert-scout/internal/wikipedia"
	"go.uber.org/zap"
)

// DefaultCollection receives imported entries.
const DefaultCollection = "experts_data"

type Importer struct {
	dst    store.Inserter
	logger *zap.Logger
}

func New(dst store.Inserter, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{dst: dst, logger: logger}
}

// Import inserts every entry and returns the inserted count.
func (i *Importer) Import(ctx context.Context, experts []wikipedia.Expert) (int, error) {
	if len(experts) == 0 {
		i.logger.Info("nothing to import")
		return 0, nil
	}

	docs := make([]any, 0, len(experts))
	for _, e := range experts {
		docs = append(docs, e)
	}

	n, err := i.dst.InsertMany(ctx, docs)
	if err != nil {
		return n, err
	}

	i.logger.Info("inserted expert profiles", zap.Int("inserted", n))
	return n, nil
}

// ImportFile reads a JSON file written by the wikipedia scraper and imports it.
func (i *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	experts, err := wikipedia.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read experts: %w", err)
	}
	i.logger.Debug("experts loaded", zap.String("file", path), zap.Int("entries", len(experts)))
	return i.Import(ctx, experts)
}
