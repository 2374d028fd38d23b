package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/starweave/starweave/internal/engine"
	"github.com/starweave/starweave/internal/mapping"
	"github.com/starweave/starweave/internal/rdf"
	"github.com/starweave/starweave/internal/store"
)

// timeNow is stubbed in tests.
var timeNow = time.Now

// RunResult is the machine-readable summary of one run.
type RunResult struct {
	Output      string   `json:"output"`
	Rows        int      `json:"rows"`
	BaseTriples int      `json:"base_triples"`
	Annotations int      `json:"annotations"`
	SkippedMaps []string `json:"skipped_maps,omitempty"`
	BatchID     int64    `json:"batch_id,omitempty"`
}

// RunOptions holds flags for the run command.
type RunOptions struct {
	DBPath     string
	Provenance bool
	DataDirs   []string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <mapping.yaml> [output.trig]",
		Short: "Generate an RDF-star dataset from a mapping document",
		Long: `Parse the mapping document, load its tabular sources, run the
two-pass generation, and serialize the result as TriG.

The output path comes from the second argument, else from the
document's declared targets, else <mapping>_output.trig next to the
mapping file.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := ""
			if len(args) == 2 {
				output = args[1]
			}
			return runRun(rootOpts, opts, args[0], output, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "persist the batch to this SQLite database")
	cmd.Flags().BoolVar(&opts.Provenance, "provenance", true, "emit the dataset-level metadata header")
	cmd.Flags().StringArrayVar(&opts.DataDirs, "data-dir", nil, "extra directories for relative source paths (repeatable)")

	return cmd
}

func runRun(rootOpts *RootOptions, opts *RunOptions, mappingPath, outputPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	spec, err := loadSpec(formatter, mappingPath)
	if err != nil {
		return err
	}

	docName := filepath.Base(mappingPath)
	baseDir := filepath.Dir(mappingPath)

	engineOpts := []engine.Option{
		engine.WithLogger(rootOpts.Logger(cmd.ErrOrStderr())),
		engine.WithBaseDir(baseDir),
		engine.WithDataDirs(opts.DataDirs...),
	}
	if opts.Provenance {
		engineOpts = append(engineOpts, engine.WithProvenance(docName))
	}

	exec := engine.New(spec, engineOpts...)
	dataset, report, err := exec.Execute(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "generation failed", err)
	}

	if outputPath == "" {
		if declared := spec.DefaultOutput(); declared != "" {
			outputPath = declared
			if !filepath.IsAbs(outputPath) {
				outputPath = filepath.Join(baseDir, outputPath)
			}
		} else {
			ext := filepath.Ext(mappingPath)
			outputPath = strings.TrimSuffix(mappingPath, ext) + "_output.trig"
		}
	}

	var buf bytes.Buffer
	if err := rdf.EncodeTriG(&buf, exec.Prefixes(), dataset); err != nil {
		return WrapExitError(ExitFailure, "serialize output", err)
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return WrapExitError(ExitCommandError, "create output directory", err)
		}
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return WrapExitError(ExitCommandError, "write output", err)
	}
	formatter.VerboseLog("wrote %d statements to %s", dataset.Len(), outputPath)

	result := RunResult{
		Output:      outputPath,
		Rows:        report.RowsProcessed,
		BaseTriples: report.BaseTriples,
		Annotations: report.Annotations,
		SkippedMaps: report.SkippedMaps,
	}

	if opts.DBPath != "" {
		batchID, err := persistBatch(cmd, opts.DBPath, docName, report, dataset)
		if err != nil {
			return err
		}
		result.BatchID = batchID
		formatter.VerboseLog("persisted batch %d to %s", batchID, opts.DBPath)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s -> %s\n", docName, outputPath)
	fmt.Fprintln(formatter.Writer, report.Summary())
	return nil
}

func persistBatch(cmd *cobra.Command, dbPath, docName string, report *engine.Report, dataset *rdf.Dataset) (int64, error) {
	s, err := store.Open(dbPath)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, "open batch database", err)
	}
	defer s.Close()

	batchID, err := s.SaveBatch(cmd.Context(), store.BatchMeta{
		Mapping:     docName,
		CreatedAt:   timeNow(),
		Rows:        report.RowsProcessed,
		BaseTriples: report.BaseTriples,
		Annotations: report.Annotations,
	}, dataset)
	if err != nil {
		return 0, WrapExitError(ExitFailure, "persist batch", err)
	}
	return batchID, nil
}

// loadSpec reads and parses a mapping document, mapping failures to
// exit codes: missing or malformed documents are command errors.
func loadSpec(formatter *OutputFormatter, path string) (*mapping.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error("E_MAPPING", fmt.Sprintf("cannot read mapping document: %v", err), nil)
		return nil, WrapExitError(ExitCommandError, "read mapping document", err)
	}
	spec, err := mapping.ParseFile(filepath.Base(path), data)
	if err != nil {
		_ = formatter.Error("E_SPEC", err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "malformed specification", err)
	}
	return spec, nil
}
