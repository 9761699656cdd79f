package main

import (
	"github.com/spf13/cobra"

	"github.com/mathgym/comicpdf/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "comicpdf",
	Short: "Turn lightweight Markdown into illustrated, paginated PDFs",
	Long: `comicpdf converts Markdown lesson documents into illustrated PDFs.

The pipeline parses headings, paragraphs, and manual illustration
directives, selects paragraphs worth illustrating, obtains images from a
pluggable text-to-image provider (with caching, retry, and a placeholder
fallback), and lays each image out beside its paragraph with alternating
sides and correct pagination.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.comicpdf/config.yaml)",
	)

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
