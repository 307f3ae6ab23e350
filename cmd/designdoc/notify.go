package main

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/ha1tch/designdoc/pkg/pipeline"
)

// newTermNotifier prints notices to w, coloured when w is a terminal.
func newTermNotifier(w io.Writer) pipeline.Notifier {
	out := termenv.NewOutput(w)
	return pipeline.NotifierFunc(func(n pipeline.Notice) {
		var color termenv.Color
		switch n.Level {
		case pipeline.LevelError:
			color = out.Color("#ef4444")
		case pipeline.LevelWarning:
			color = out.Color("#f59e0b")
		default:
			color = out.Color("#60a5fa")
		}
		label := out.String(n.Level.String()).Foreground(color).Bold()
		fmt.Fprintf(w, "%s [%s] %s\n", label, n.Stage, n.Message)
	})
}
