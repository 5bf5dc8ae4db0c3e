package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	validateSession string
	validateText    string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check narrative text for anachronisms",
	Long: `Runs the history validator for a session: searches for evidence about
the terms in the text, asks the helper model for a verdict, and falls back to
the built-in lexicon when the model is unavailable.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSession, "session", "s", "", "session id (required)")
	validateCmd.Flags().StringVarP(&validateText, "text", "t", "", "narrative text to check (required)")
	_ = validateCmd.MarkFlagRequired("session")
	_ = validateCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(validateText) == "" {
		return errors.New("text cannot be empty")
	}
	verdict := validator.Validate(cmd.Context(), validateSession, validateText)
	return printJSON(cmd, verdict)
}
