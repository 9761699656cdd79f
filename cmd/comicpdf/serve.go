package main

import (
	"github.com/spf13/cobra"

	"github.com/mathgym/comicpdf/book"
	"github.com/mathgym/comicpdf/config"
	"github.com/mathgym/comicpdf/srv"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the converter over HTTP",
	Long: `Start the HTTP service.

Endpoints:
  POST /generate - Markdown in, PDF attachment out
  GET  /health   - liveness check

Examples:
  comicpdf serve
  comicpdf serve --addr :3000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		asm, err := book.New(cfg)
		if err != nil {
			return err
		}
		return srv.New(asm).ListenAndServe(cmd.Context(), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}
