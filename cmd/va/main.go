// Package main provides the va CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "va",
	Short: "Voice archive semantic search",
	Long: `va ingests spoken-word audio into a searchable voice archive.

Audio is transcribed with word-level timestamps and speaker labels,
segmented into timestamp-addressable chunks, optionally scrubbed of
sensitive substrings, embedded, and indexed in a vector store. Search
embeds the query and returns a de-duplicated, diversity-reranked result
list, optionally scored against a set of known-relevant segment IDs.

All commands output JSON by default for easy scripting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
