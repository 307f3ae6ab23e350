package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ha1tch/designdoc/internal/server"
	"github.com/ha1tch/designdoc/pkg/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the export pipeline over HTTP",
		Long: `Starts an HTTP server with:

  POST /api/yaml     JSON form -> canonical YAML
  POST /api/dot      YAML -> DOT
  POST /api/diagram  YAML -> PNG
  POST /api/export   YAML -> .docx download
  GET  /api/last     canonical YAML of the latest published run
  GET  /api/last/docx  .docx of the latest published export
  GET  /healthz
  GET  /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = a.cfg.Listen
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			p, err := a.pipeline(cmd, reg)
			if err != nil {
				return err
			}
			// Notices reach HTTP clients as status codes and headers.
			p.Notifier = nil

			h := server.NewHandler(&server.Server{
				Pipeline:  p,
				Workspace: &pipeline.Workspace{},
				Gatherer:  reg,
				Logger:    a.logger,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, listen, h, a.logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default from config, :8080)")
	return cmd
}
