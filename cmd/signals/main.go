package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/worldstate-engine/internal/app"
	"github.com/jwebster45206/worldstate-engine/internal/config"
	"github.com/jwebster45206/worldstate-engine/internal/logger"
	"github.com/jwebster45206/worldstate-engine/internal/storage"
	"github.com/jwebster45206/worldstate-engine/pkg/anachronism"
	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
	"github.com/jwebster45206/worldstate-engine/pkg/queue"
)

type historyValidator interface {
	Validate(ctx context.Context, sessionID, narrative string) anachronism.Verdict
}

type enqueuer interface {
	Enqueue(ctx context.Context, req *queue.Request) error
	Depth(ctx context.Context) (int, error)
}

// Set by setupServices, or directly by tests.
var (
	store     storage.ConversationStore
	extractor *indicator.Extractor
	validator historyValidator
	jobs      enqueuer
	closer    func() error
)

var rootCmd = &cobra.Command{
	Use:   "signals",
	Short: "Inspect and feed the world-state signals of a stored session",
	Long: `signals runs the world-state indicators and the history validator
against a conversation in the configured store, and appends records to it.
Configuration is read from the environment and CONFIG_FILE, as for the API.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closer == nil {
			return nil
		}
		return closer()
	},
}

func setupServices(cmd *cobra.Command, args []string) error {
	if store != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg, os.Stderr)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialise: %w", err)
	}
	store = a.Store
	extractor = a.Extractor
	validator = a.Validator
	jobs = a.Queue()
	closer = a.Close
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
