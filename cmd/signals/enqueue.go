package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/worldstate-engine/pkg/queue"
)

var (
	enqueueSession string
	enqueueType    string
	enqueueText    string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue background work for the worker",
	Long: `Adds a request to the worker queue in Redis. refresh_world_state recomputes
and publishes every signal; validate_history checks --text and publishes the
verdict. Start cmd/worker to process the queue.`,
	Args: cobra.NoArgs,
	RunE: runEnqueue,
}

func init() {
	enqueueCmd.Flags().StringVarP(&enqueueSession, "session", "s", "", "session id (required)")
	enqueueCmd.Flags().StringVar(&enqueueType, "type", string(queue.RequestTypeRefresh), "refresh_world_state or validate_history")
	enqueueCmd.Flags().StringVarP(&enqueueText, "text", "t", "", "narrative text for validate_history")
	_ = enqueueCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(enqueueCmd)
}

type enqueueOutput struct {
	RequestID string            `json:"request_id"`
	Type      queue.RequestType `json:"type"`
	Depth     int               `json:"depth"`
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req := queue.NewRequest(queue.RequestType(enqueueType), enqueueSession, enqueueText)
	if err := req.Validate(); err != nil {
		return err
	}
	if err := jobs.Enqueue(ctx, req); err != nil {
		return err
	}

	depth, err := jobs.Depth(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue depth: %w", err)
	}
	return printJSON(cmd, enqueueOutput{RequestID: req.RequestID, Type: req.Type, Depth: depth})
}
