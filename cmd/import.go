package cmd

import (
	"context"
	"fmt"

	"github.com/spigell/expert-scout/internal/importer"
	"github.com/spigell/expert-scout/internal/secrets"
	"github.com/spigell/expert-scout/internal/store"
	"github.com/spigell/expert-scout/internal/wikipedia"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Insert entries collected by the wikipedia command into MongoDB",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		importExperts(args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func importExperts(args []string) {
	s := newSession("import")
	defer s.close()
	ctx, config, lg := s.ctx, s.config, s.logger

	path := config.Wikipedia.Output
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		path = wikipedia.DefaultOutput
	}

	dst, err := connectImportStore(ctx, config, lg)
	if err != nil {
		lg.Fatal("[ERROR] could not connect to the database", zap.Error(err))
	}
	defer dst.Close(context.Background())

	n, err := importer.New(dst, lg).ImportFile(ctx, path)
	if err != nil {
		lg.Fatal("importing experts", zap.Error(err), zap.Int("inserted", n))
	}

	lg.Info("import finished", zap.Int("inserted", n), zap.String("file", path))
}

func connectImportStore(ctx context.Context, config *Config, lg *zap.Logger) (*store.Mongo, error) {
	uri, err := secrets.Load(secrets.Source{Name: "mongodb uri", Value: config.MongoDB.URI})
	if err != nil {
		return nil, fmt.Errorf("%w (set MONGODB_URI or mongodb.uri)", err)
	}

	collection := config.MongoDB.ImportCollection
	if collection == "" {
		collection = importer.DefaultCollection
	}
	return store.Connect(ctx, uri, config.MongoDB.Database, collection, lg)
}
