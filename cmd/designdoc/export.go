package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/designfile"
	"github.com/ha1tch/designdoc/pkg/docx"
	"github.com/ha1tch/designdoc/pkg/pipeline"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [design.yaml]",
		Short: "Assemble the design document as .docx",
		Long: `Parses the canonical YAML, draws the state table when there is one and
writes the Word document. A diagram that cannot be drawn is left out with a
warning; the document is still written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			p, err := a.pipeline(cmd, nil)
			if err != nil {
				return err
			}

			res, err := p.Export(cmd.Context(), string(data))
			if err != nil {
				var perr *designfile.ParseError
				var aerr *docx.AssemblyError
				if errors.As(err, &perr) || errors.As(err, &aerr) {
					// Already shown as a notice.
					cmd.SilenceErrors = true
				}
				return err
			}

			if output == "" {
				output = res.Output.Name
			}
			if err := writeOutput(cmd, output, res.Output.Data, true); err != nil {
				return err
			}
			if res.Diagram == pipeline.DiagramOmitted {
				fmt.Fprintln(cmd.ErrOrStderr(), "The document was written without the state transition diagram.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default from config)")
	return cmd
}
