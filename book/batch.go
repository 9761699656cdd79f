package book

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Batch converts every Markdown file under an input root into a PDF under
// the output root, mirroring the relative directory structure.
type Batch struct {
	Assembler  *Assembler
	InputRoot  string
	OutputRoot string
	Validate   bool // run a pdfcpu structural check on each emitted file
}

// Run processes all *.md files in lexical order. A failing document is
// logged and skipped; the batch keeps going. The returned error summarizes
// how many documents failed, nil when all succeeded.
func (b *Batch) Run(ctx context.Context) error {
	inputs, err := b.findInputs()
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no markdown files under %s", b.InputRoot)
	}

	failed := 0
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := b.outputPath(in)
		if err != nil {
			return err
		}
		if err := b.renderFile(ctx, in, out); err != nil {
			log.Printf("rendering %s: %v", in, err)
			failed++
			continue
		}
		log.Printf("wrote %s", out)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(inputs))
	}
	return nil
}

func (b *Batch) findInputs() ([]string, error) {
	var inputs []string
	err := filepath.WalkDir(b.InputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", b.InputRoot, err)
	}
	sort.Strings(inputs)
	return inputs, nil
}

func (b *Batch) outputPath(in string) (string, error) {
	rel, err := filepath.Rel(b.InputRoot, in)
	if err != nil {
		return "", fmt.Errorf("relativizing %s: %w", in, err)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".pdf"
	return filepath.Join(b.OutputRoot, rel), nil
}

func (b *Batch) renderFile(ctx context.Context, in, out string) error {
	text, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := b.Assembler.Render(ctx, string(text), titleFromFilename(in), f); err != nil {
		f.Close()
		os.Remove(out)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	if b.Validate {
		if err := api.ValidateFile(out, nil); err != nil {
			return fmt.Errorf("validating output: %w", err)
		}
	}
	return nil
}

// titleFromFilename turns "mi_primer-comic.md" into "mi primer comic", the
// fallback when a document carries no level-1 heading.
func titleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return strings.Join(strings.Fields(stem), " ")
}
