package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/pkg/diagram"
)

func newRenderCmd(a *app) *cobra.Command {
	var output string
	var svg bool

	cmd := &cobra.Command{
		Use:   "render [design.yaml]",
		Short: "Render the state transition diagram as PNG or SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := readDocument(cmd, args)
			if err != nil {
				return err
			}
			if !doc.HasTransitions() {
				return errors.New("the state table is empty; there is nothing to draw")
			}
			g := diagram.BuildGraph(doc.Transitions)

			if svg {
				r, err := a.cfg.Renderer()
				if err != nil {
					return err
				}
				img, err := r.RenderToVector(cmd.Context(), g)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, img.SVG, false)
			}

			p, err := a.pipeline(cmd, nil)
			if err != nil {
				return err
			}
			bm, err := p.Diagram(cmd.Context(), g)
			if err != nil {
				return err
			}
			a.logger.Debug("rendered diagram", "width", bm.Width, "height", bm.Height)
			return writeOutput(cmd, output, bm.PNG, true)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&svg, "svg", false, "write the vector image instead of PNG")
	return cmd
}
