package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spigell/expert-scout/internal/logger"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// session is the state shared by every command invocation.
type session struct {
	ctx    context.Context
	stop   context.CancelFunc
	config *Config
	logger *zap.Logger
	runID  string
}

// newSession loads the config and builds the command logger. Every entry
// carries the run id. The context ends on SIGINT or SIGTERM.
func newSession(command string) *session {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	config, err := getConfig()
	if err != nil {
		log.Fatalf("getting a config: %s", err)
	}

	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), config.LogFile)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	runID := uuid.NewString()
	lg = logger.WithFields(lg,
		zap.String(logger.FieldRunID, runID),
		zap.String("command", command),
	)

	return &session{ctx: ctx, stop: stop, config: config, logger: lg, runID: runID}
}

func (s *session) close() {
	s.stop()
	_ = s.logger.Sync()
}
