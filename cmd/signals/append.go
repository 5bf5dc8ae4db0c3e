package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwebster45206/worldstate-engine/pkg/chat"
)

var (
	appendSession string
	appendRole    string
	appendContent string
	appendDate    string
)

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a record to a session's conversation",
	Long: `Appends one message to the stored conversation. Without --session a new
session id is generated and printed.`,
	Args: cobra.NoArgs,
	RunE: runAppend,
}

func init() {
	appendCmd.Flags().StringVarP(&appendSession, "session", "s", "", "session id (default: new)")
	appendCmd.Flags().StringVarP(&appendRole, "role", "r", chat.ChatRoleUser, "user, assistant, or system")
	appendCmd.Flags().StringVarP(&appendContent, "content", "c", "", "message content (required)")
	appendCmd.Flags().StringVar(&appendDate, "date", "", "estimated in-world date, e.g. 1200-05-01 or -0120-05-20")
	_ = appendCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(appendCmd)
}

type appendOutput struct {
	SessionID string `json:"session_id"`
	Records   int    `json:"records"`
}

func runAppend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sessionID := appendSession
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	msg := chat.Message{Role: appendRole, Content: appendContent, EstimatedDate: appendDate}
	if err := store.AppendMessage(ctx, sessionID, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	history, err := store.LoadConversation(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	return printJSON(cmd, appendOutput{SessionID: sessionID, Records: len(history)})
}
