package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Maps     int    `json:"maps"`
	Quoted   int    `json:"quoted_maps"`
	Prefixes int    `json:"prefixes"`
	Error    string `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <mapping.yaml>",
		Short: "Check a mapping document without generating anything",
		Long: `Check the mapping document against the schema and the structural
rules of the mapping language. No sources are loaded and no output is
written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	spec, err := loadSpec(formatter, path)
	if err != nil {
		return err
	}

	quoted := 0
	for i := range spec.Maps {
		if spec.Maps[i].Quoted() {
			quoted++
		}
	}

	result := ValidationResult{
		Valid:    true,
		Maps:     len(spec.Maps),
		Quoted:   quoted,
		Prefixes: len(spec.Prefixes),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %d maps (%d quoted), %d prefixes\n",
		path, result.Maps, result.Quoted, result.Prefixes)
	return nil
}
