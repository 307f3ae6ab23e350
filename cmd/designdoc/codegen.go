package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/codegen"
)

func newCodegenCmd(a *app) *cobra.Command {
	var lang, name, output string

	cmd := &cobra.Command{
		Use:   "codegen [design.yaml]",
		Short: "Generate a code skeleton from the design",
		Long: fmt.Sprintf(`Generates states, a context struct for arguments and settings, one stub per
function with its pseudocode as comments, and the state table.

Languages: %s`, strings.Join(codegen.Languages(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			src, err := codegen.Generate(lang, doc, name)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, []byte(src), false)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "go", "target language")
	cmd.Flags().StringVarP(&name, "name", "n", "design", "machine name, used for the package or prefix")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
