package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/docx"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document.docx>",
		Short: "List the sections of an assembled document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			sections, err := docx.ReadOutline(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var headings, paragraphs, images int
			for _, s := range sections {
				switch s.Type {
				case "heading":
					headings++
					fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", max(s.Level-1, 0)), s.Text)
				case "image":
					images++
					fmt.Fprintf(out, "%s[image]\n", strings.Repeat("  ", 2))
				default:
					paragraphs++
				}
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Headings:    %d\n", headings)
			fmt.Fprintf(out, "Paragraphs:  %d\n", paragraphs)
			fmt.Fprintf(out, "Images:      %d\n", images)
			return nil
		},
	}
}
