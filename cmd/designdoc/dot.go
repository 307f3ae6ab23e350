package main

import (
	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/diagram"
)

func newDotCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "dot [design.yaml]",
		Short:   "Print the state table as Graphviz DOT",
		Example: `  designdoc dot design.yaml | dot -Tpng -o diagram.png`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			if !doc.HasTransitions() {
				a.logger.Warn("state table is empty; the graph has no edges")
			}
			g := diagram.BuildGraph(doc.Transitions)
			return writeOutput(cmd, output, []byte(g), false)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
