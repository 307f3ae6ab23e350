package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/designfile"
)

func newYAMLCmd(a *app) *cobra.Command {
	var output string
	var normalize bool

	cmd := &cobra.Command{
		Use:   "yaml [form.json]",
		Short: "Produce canonical YAML from a JSON form",
		Long: `Reads a JSON object with the keys purpose, arguments, settings, functions,
states, transitions and pseudocode and prints its canonical YAML. With
--normalize the input is existing YAML, which is re-serialized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var doc design.Document
			if normalize {
				if doc, err = designfile.Deserialize(string(data)); err != nil {
					return err
				}
			} else {
				var form map[string]any
				if err := json.Unmarshal(data, &form); err != nil {
					return fmt.Errorf("parse form: %w", err)
				}
				if doc, err = design.FromForm(form); err != nil {
					return err
				}
			}

			p, err := a.pipeline(cmd, nil)
			if err != nil {
				return err
			}
			text, err := p.Generate(doc)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, []byte(text), false)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "read YAML instead of a JSON form")
	return cmd
}
