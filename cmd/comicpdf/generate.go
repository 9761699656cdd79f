package main

import (
	"github.com/spf13/cobra"

	"github.com/mathgym/comicpdf/book"
	"github.com/mathgym/comicpdf/config"
)

var (
	inputRoot  string
	outputRoot string
	skipImages bool
	strictMode bool
	provider   string
	maxImages  int
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render every Markdown file under the input root to a PDF",
	Long: `Render every *.md file under the input root into a matching PDF under
the output root, mirroring the directory structure.

Examples:
  comicpdf generate                                 # roots from config
  comicpdf generate --input docs --output out
  comicpdf generate --skip-images                   # text-only, no provider calls
  comicpdf generate --provider horde --max-images 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("input") {
			cfg.InputRoot = inputRoot
		}
		if cmd.Flags().Changed("output") {
			cfg.OutputRoot = outputRoot
		}
		if cmd.Flags().Changed("skip-images") {
			cfg.SkipImages = skipImages
		}
		if cmd.Flags().Changed("strict") {
			cfg.Strict = strictMode
		}
		if cmd.Flags().Changed("provider") {
			cfg.Provider = provider
		}
		if cmd.Flags().Changed("max-images") {
			cfg.MaxImages = maxImages
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		asm, err := book.New(cfg)
		if err != nil {
			return err
		}
		batch := &book.Batch{
			Assembler:  asm,
			InputRoot:  cfg.InputRoot,
			OutputRoot: cfg.OutputRoot,
			Validate:   cfg.ValidateOutput,
		}
		return batch.Run(cmd.Context())
	},
}

func init() {
	generateCmd.Flags().StringVar(&inputRoot, "input", "docs", "directory tree of Markdown sources")
	generateCmd.Flags().StringVar(&outputRoot, "output", "out", "directory for emitted PDFs")
	generateCmd.Flags().BoolVar(&skipImages, "skip-images", false, "render text only, no provider calls")
	generateCmd.Flags().BoolVar(&strictMode, "strict", false, "fail hard on provider auth/billing errors")
	generateCmd.Flags().StringVar(&provider, "provider", "", "image provider: horde, sdwebui, openai, placeholder")
	generateCmd.Flags().IntVar(&maxImages, "max-images", 0, "maximum illustrations per document")
}
