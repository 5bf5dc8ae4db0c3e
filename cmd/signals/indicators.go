package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/worldstate-engine/pkg/indicator"
)

var (
	indicatorsSession string
	indicatorsSignal  string
)

var indicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "Classify the world-state signals of a session",
	Long: `Scans the session's conversation backward and prints each signal's
code and label. Without --signal all five signals are computed.`,
	Args: cobra.NoArgs,
	RunE: runIndicators,
}

func init() {
	indicatorsCmd.Flags().StringVarP(&indicatorsSession, "session", "s", "", "session id (required)")
	indicatorsCmd.Flags().StringVar(&indicatorsSignal, "signal", "", "single signal: safety, time_of_day, weather, terrain, temperature")
	_ = indicatorsCmd.MarkFlagRequired("session")
	rootCmd.AddCommand(indicatorsCmd)
}

type indicatorOutput struct {
	Signal string `json:"signal"`
	Value  int    `json:"value"`
	Label  string `json:"label"`
}

func runIndicators(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	history, err := store.LoadConversation(ctx, indicatorsSession)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	if indicatorsSignal != "" {
		sig, err := indicator.ParseSignal(indicatorsSignal)
		if err != nil {
			return err
		}
		value, err := extractor.Extract(ctx, sig, history)
		if err != nil {
			return err
		}
		return printJSON(cmd, indicatorOutput{Signal: string(sig), Value: value, Label: indicator.Label(sig, value)})
	}

	state := extractor.Snapshot(ctx, history)
	out := make([]indicatorOutput, 0, len(indicator.Signals))
	for _, sig := range indicator.Signals {
		v := state.Value(sig)
		out = append(out, indicatorOutput{Signal: string(sig), Value: v, Label: indicator.Label(sig, v)})
	}
	return printJSON(cmd, out)
}
