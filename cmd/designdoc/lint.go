package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/design"
)

func newLintCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint [design.yaml]",
		Short: "Report advisory problems in a design document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}

			warnings := design.Lint(doc)
			out := cmd.OutOrStdout()
			for _, w := range warnings {
				fmt.Fprintf(out, "%s: %s\n", w.Type, w.Message)
			}
			if len(warnings) == 0 {
				fmt.Fprintln(out, "no problems found")
				return nil
			}
			if strict {
				cmd.SilenceErrors = true
				return fmt.Errorf("%d warning(s)", len(warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when there are warnings")
	return cmd
}
