package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spigell/expert-scout/internal/ai"
	"github.com/spigell/expert-scout/internal/ai/gemini"
	"github.com/spigell/expert-scout/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the chat assistant and print the answer",
	Run: func(cmd *cobra.Command, args []string) {
		runChat(cmd.OutOrStdout(), args)
	},
}

var messagePrompt = promptui.Prompt{
	Label: "Message",
	Validate: func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New("message must not be empty")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(out io.Writer, args []string) {
	s := newSession("chat")
	defer s.close()
	ctx, config, lg := s.ctx, s.config, s.logger

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		var err error
		message, err = messagePrompt.Run()
		if err != nil {
			lg.Fatal("reading message", zap.Error(err))
		}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  config.Chat.APIKeyFile,
		Value: config.Chat.APIKey,
	})
	if err != nil {
		lg.Fatal("loading gemini api key", zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or GEMINI_API_KEY_FILE, or chat.api-key-file in the configuration file"),
		)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.Chat.Gemini, lg)
	if err != nil {
		lg.Fatal("creating gemini client", zap.Error(err))
	}

	if err := chat(ctx, generator, message, out); err != nil {
		lg.Fatal("chat request failed", zap.Error(err))
	}
}

// chat forwards message to assistant and writes the answer to out.
func chat(ctx context.Context, assistant ai.Assistant, message string, out io.Writer) error {
	answer, err := assistant.Ask(ctx, message)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, answer.Text)
	return err
}
