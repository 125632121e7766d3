package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhalloran/voicearch/internal/redact"
)

func init() {
	rootCmd.AddCommand(redactCmd)
}

// RedactResponse is the response for the redact command.
type RedactResponse struct {
	Text string `json:"text"`
}

var redactCmd = &cobra.Command{
	Use:   "redact [text]",
	Short: "Run the PII filter over text",
	Long: `Redact applies the same pattern-based scrubbing used at ingest time:
payment cards, SSNs, email addresses, phone numbers and IPv4 addresses
are replaced with placeholder tokens.

Reads from stdin when no argument is given. This is a best-effort
filter, not a guarantee of PII removal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRedact,
}

func runRedact(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitWithError(ExitError, "reading stdin: %v", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	redacted := redact.New().Filter(text)

	if humanOutput {
		fmt.Println(redacted)
	} else {
		outputJSON(RedactResponse{Text: redacted})
	}
	return nil
}
