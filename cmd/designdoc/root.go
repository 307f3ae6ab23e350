package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ha1tch/designdoc/internal/config"
	"github.com/ha1tch/designdoc/internal/logging"
	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/designfile"
	"github.com/ha1tch/designdoc/pkg/docx"
	"github.com/ha1tch/designdoc/pkg/pipeline"
)

// app is the state shared by every command of one invocation.
type app struct {
	configPath string
	logLevel   string
	engine     string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "designdoc",
		Short: "Export program design documents to Word",
		Long: `designdoc keeps a program design (purpose, arguments, settings, functions,
states, state table and pseudocode) as canonical YAML, draws the state table
as a diagram and assembles everything into a .docx document.`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides the config file)")
	flags.StringVar(&a.engine, "engine", "", "diagram engine: auto, graphviz or native (overrides the config file)")

	root.AddCommand(
		newYAMLCmd(a),
		newDotCmd(a),
		newRenderCmd(a),
		newExportCmd(a),
		newLintCmd(a),
		newCodegenCmd(a),
		newInspectCmd(a),
		newPreviewCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.engine != "" {
		cfg.Engine = a.engine
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.NewWriter(cmd.ErrOrStderr(), level)
	return nil
}

// pipeline builds the configured pipeline. Notices go to the command's
// stderr. A nil reg leaves metrics off.
func (a *app) pipeline(cmd *cobra.Command, reg prometheus.Registerer) (*pipeline.Pipeline, error) {
	r, err := a.cfg.Renderer()
	if err != nil {
		return nil, err
	}
	p := pipeline.New(r, a.cfg.Rasterizer(), docx.Assembler{Options: a.cfg.DocxOptions()})
	p.Logger = a.logger
	p.Notifier = newTermNotifier(cmd.ErrOrStderr())
	if reg != nil {
		p.Metrics = pipeline.NewMetrics(reg)
	}
	return p, nil
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

// readDocument reads and parses canonical text.
func readDocument(cmd *cobra.Command, args []string) (string, design.Document, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return "", design.Document{}, err
	}
	doc, err := designfile.Deserialize(string(data))
	if err != nil {
		return "", design.Document{}, err
	}
	return string(data), doc, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeOutput writes data to path, or to stdout for "" and "-". Binary
// data is never written to a terminal.
func writeOutput(cmd *cobra.Command, path string, data []byte, binary bool) error {
	if path == "" || path == "-" {
		out := cmd.OutOrStdout()
		if binary && isTerminal(out) {
			return fmt.Errorf("refusing to write binary output to a terminal; use -o or redirect stdout")
		}
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Written: %s\n", path)
	return nil
}
