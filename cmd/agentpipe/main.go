// Command agentpipe replays recorded coding-agent CLI streams as normalized
// transcripts.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "agentpipe",
	Short: "Normalize coding-agent CLI streams into replayable transcripts",
	Long: `agentpipe consumes the line-delimited JSON dialects spoken by coding-agent
CLIs and normalizes them into one canonical entry sequence: coalesced
assistant text, correlated tool lifecycles, and reconstructed unified diffs.

Quick start:
  agentpipe replay --dialect claude session.jsonl
  agentpipe replay --dialect cursor --follow session.jsonl
  agentpipe replay --dialect acp --json session.jsonl`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		log.SetLevel(level)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level: debug, info, warn, error")
	rootCmd.AddCommand(newReplayCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
