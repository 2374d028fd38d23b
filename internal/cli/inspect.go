package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/starweave/starweave/internal/store"
)

// BatchSummary is the machine-readable form of one persisted batch.
type BatchSummary struct {
	ID          int64  `json:"id"`
	Mapping     string `json:"mapping"`
	CreatedAt   string `json:"created_at"`
	Rows        int    `json:"rows"`
	BaseTriples int    `json:"base_triples"`
	Annotations int    `json:"annotations"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "inspect",
		Short:         "List persisted generation batches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite batch database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(rootOpts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	// store.Open would create a fresh database; inspecting one that
	// does not exist is a usage error instead.
	if _, err := os.Stat(dbPath); err != nil {
		_ = formatter.Error("E_DB", fmt.Sprintf("batch database not found: %v", err), nil)
		return WrapExitError(ExitCommandError, "batch database not found", err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "open batch database", err)
	}
	defer s.Close()

	batches, err := s.ListBatches(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "list batches", err)
	}

	if formatter.Format == "json" {
		summaries := make([]BatchSummary, 0, len(batches))
		for _, b := range batches {
			summaries = append(summaries, BatchSummary{
				ID:          b.ID,
				Mapping:     b.Mapping,
				CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
				Rows:        b.Rows,
				BaseTriples: b.BaseTriples,
				Annotations: b.Annotations,
			})
		}
		return formatter.Success(summaries)
	}

	if len(batches) == 0 {
		fmt.Fprintln(formatter.Writer, "no batches")
		return nil
	}
	for _, b := range batches {
		fmt.Fprintf(formatter.Writer, "%d  %s  %s  %d rows, %d base triples, %d annotations\n",
			b.ID, b.CreatedAt.UTC().Format(time.RFC3339), b.Mapping,
			b.Rows, b.BaseTriples, b.Annotations)
	}
	return nil
}
