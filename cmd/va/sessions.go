package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhalloran/voicearch/internal/config"
	"github.com/mhalloran/voicearch/internal/storage"
)

var sessionsShowFiles string

func init() {
	rootCmd.AddCommand(sessionsCmd)

	sessionsCmd.Flags().StringVar(&sessionsShowFiles, "files", "", "List the files indexed in the given session")
}

// SessionsResponse is the response for the sessions command.
type SessionsResponse struct {
	Sessions []storage.SessionRecord `json:"sessions"`
}

// SessionFilesResponse is the response when listing one session's files.
type SessionFilesResponse struct {
	Session string               `json:"session"`
	Files   []storage.FileRecord `json:"files"`
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past ingest runs from the local ledger",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	path := config.DefaultLedgerPath(global)
	if _, err := os.Stat(path); err != nil {
		exitWithError(ExitConfigError, "no ingest ledger at %s (run 'va ingest' first)", path)
	}

	ledger, err := storage.OpenDB(path)
	if err != nil {
		exitWithError(ExitError, "opening ledger: %v", err)
	}
	defer ledger.Close()

	if sessionsShowFiles != "" {
		files, err := ledger.ListFiles(sessionsShowFiles)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			for _, f := range files {
				fmt.Printf("%s  %s  %d segments, %d vectors  %s\n",
					f.Digest[:16], f.Name, f.SegmentCount, f.VectorCount, f.IndexedAt.Format("2006-01-02 15:04"))
			}
		} else {
			outputJSON(SessionFilesResponse{Session: sessionsShowFiles, Files: files})
		}
		return nil
	}

	sessions, err := ledger.ListSessions()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		for _, s := range sessions {
			fmt.Printf("%s  %s  %d files  %s\n",
				s.ID, s.Namespace, s.FileCount, s.StartedAt.Format("2006-01-02 15:04"))
		}
	} else {
		outputJSON(SessionsResponse{Sessions: sessions})
	}
	return nil
}
