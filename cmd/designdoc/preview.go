package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/preview"
)

func newPreviewCmd(a *app) *cobra.Command {
	var style string
	var width int
	var markdown bool

	cmd := &cobra.Command{
		Use:   "preview [design.yaml | document.docx]",
		Short: "Show the assembled document in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			if len(args) == 0 || !strings.EqualFold(filepath.Ext(args[0]), ".docx") {
				p, err := a.pipeline(cmd, nil)
				if err != nil {
					return err
				}
				res, err := p.Export(cmd.Context(), string(data))
				if err != nil {
					cmd.SilenceErrors = true
					return err
				}
				data = res.Output.Data
			}

			md, err := preview.Document(data)
			if err != nil {
				return err
			}
			if markdown || !isTerminal(cmd.OutOrStdout()) {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := preview.Render(md, preview.Options{Style: style, Width: width})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty, ...); default follows the terminal")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap column")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "print Markdown instead of rendering it")
	return cmd
}
