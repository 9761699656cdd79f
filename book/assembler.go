// Package book drives parsing, selection, image acquisition, and layout to
// turn one Markdown document into a finished PDF.
package book

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mathgym/comicpdf/config"
	"github.com/mathgym/comicpdf/imagecache"
	"github.com/mathgym/comicpdf/imagegen"
	"github.com/mathgym/comicpdf/layout"
	"github.com/mathgym/comicpdf/markdown"
	"github.com/mathgym/comicpdf/selector"
)

// Assembler renders documents with a shared cache, provider gateway, and
// inter-request throttle. Safe for concurrent Render calls.
type Assembler struct {
	cache   *imagecache.Cache
	gateway *imagegen.Gateway
	refiner imagegen.Refiner
	parser  markdown.Parser
	weights selector.Weights

	maxImages    int
	skipImages   bool
	strict       bool
	requestDelay time.Duration
	stylePrefix  string
	fontPath     string
	width        int
	height       int

	mu       sync.Mutex
	lastCall time.Time
}

// New wires an assembler from the runtime configuration.
func New(cfg config.Config) (*Assembler, error) {
	pcfg := imagegen.ProviderConfig{
		Model:       cfg.Model,
		Width:       cfg.ImageWidth,
		Height:      cfg.ImageHeight,
		Steps:       cfg.Steps,
		PollTimeout: cfg.PollTimeout,
	}
	switch cfg.Provider {
	case "sdwebui":
		pcfg.BaseURL = cfg.SDWebUIURL
	case "horde":
		pcfg.APIKey = cfg.HordeAPIKey
	case "openai":
		pcfg.BaseURL = cfg.OpenAIBaseURL
		pcfg.APIKey = cfg.OpenAIAPIKey
	}
	provider, err := imagegen.NewProvider(cfg.Provider, pcfg)
	if err != nil {
		return nil, fmt.Errorf("building provider: %w", err)
	}

	gateway := imagegen.NewGateway(provider, imagegen.GatewayConfig{
		Attempts:  uint(cfg.Retry.Attempts),
		BaseDelay: cfg.Retry.BaseDelay,
		MaxDelay:  cfg.Retry.MaxDelay,
		MaxJitter: cfg.Retry.Jitter,
		Strict:    cfg.Strict,
		Width:     cfg.ImageWidth,
		Height:    cfg.ImageHeight,
		Steps:     cfg.Steps,
		Model:     cfg.Model,
	})

	cache, err := imagecache.New(cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	var refiner imagegen.Refiner
	switch cfg.Refiner {
	case "none":
	case "claude":
		if cfg.AnthropicAPIKey == "" {
			log.Printf("claude refiner requested without anthropic_api_key, falling back to heuristic")
			refiner = imagegen.HeuristicRefiner{}
		} else {
			refiner = imagegen.NewClaudeRefiner(cfg.AnthropicAPIKey)
		}
	default:
		refiner = imagegen.HeuristicRefiner{}
	}

	return &Assembler{
		cache:        cache,
		gateway:      gateway,
		refiner:      refiner,
		parser:       markdown.Parser{AppendixMarker: cfg.AppendixMarker},
		weights:      selector.DefaultWeights(),
		maxImages:    cfg.MaxImages,
		skipImages:   cfg.SkipImages,
		strict:       cfg.Strict,
		requestDelay: cfg.RequestDelay,
		stylePrefix:  cfg.StylePrefix,
		fontPath:     cfg.FontPath,
		width:        cfg.ImageWidth,
		height:       cfg.ImageHeight,
	}, nil
}

// Render converts one Markdown document to a PDF on w. fallbackTitle is used
// when the document has no level-1 heading. Image failures degrade the
// affected paragraph; only a strict-mode auth failure aborts the document.
func (a *Assembler) Render(ctx context.Context, text, fallbackTitle string, w io.Writer) error {
	doc := a.parser.Parse(text)
	title := doc.Title
	if title == "" {
		title = fallbackTitle
	}

	eng := layout.NewEngine(layout.Config{FontPath: a.fontPath})
	eng.SetMetadata(title, "comicpdf")

	cover, err := a.acquire(ctx, title, title)
	if err != nil {
		if a.fatal(err) {
			return fmt.Errorf("cover image: %w", err)
		}
		log.Printf("cover image unavailable: %v", err)
	}
	if err := eng.TitlePage(markdown.CleanInline(title), cover); err != nil {
		return err
	}

	selected := make(map[int]bool)
	for _, i := range selector.SelectWeighted(doc.Blocks, a.maxImages, a.weights) {
		selected[i] = true
	}

	marker := strings.ToLower(strings.TrimSpace(a.parser.AppendixMarker))
	if marker == "" {
		marker = markdown.DefaultAppendixMarker
	}

	appendixTitle := ""
	titleRendered := false
	skipNext := false
	for i, b := range doc.Blocks {
		if skipNext {
			skipNext = false
			continue
		}
		switch b.Kind {
		case markdown.KindHeading:
			if b.Level == 1 && !titleRendered && b.Text == doc.Title {
				// The first H1 already became the title page.
				titleRendered = true
				continue
			}
			if b.Level == 2 && strings.ToLower(strings.TrimSpace(b.Text)) == marker {
				// The marker heading opens the appendix page instead.
				appendixTitle = markdown.CleanInline(b.Text)
				continue
			}
			eng.Heading(b.Level, markdown.CleanInline(b.Text))

		case markdown.KindImageDirective:
			var para string
			if i+1 < len(doc.Blocks) && doc.Blocks[i+1].Kind == markdown.KindParagraph {
				para = markdown.CleanInline(doc.Blocks[i+1].Text)
				skipNext = true
			}
			if !selected[i] {
				if para != "" {
					eng.Paragraph(para)
				}
				continue
			}
			raster, err := a.acquire(ctx, title, b.Text)
			if err != nil {
				if a.fatal(err) {
					return fmt.Errorf("directive image: %w", err)
				}
				log.Printf("directive image unavailable: %v", err)
			}
			if err := a.place(eng, para, raster); err != nil {
				return err
			}

		case markdown.KindParagraph:
			para := markdown.CleanInline(b.Text)
			if !selected[i] {
				eng.Paragraph(para)
				continue
			}
			raster, err := a.acquire(ctx, title, b.Text)
			if err != nil {
				if a.fatal(err) {
					return fmt.Errorf("paragraph image: %w", err)
				}
				log.Printf("paragraph image unavailable: %v", err)
			}
			if err := a.place(eng, para, raster); err != nil {
				return err
			}
		}
	}

	if len(doc.Appendix) > 0 {
		if appendixTitle == "" {
			appendixTitle = "Actividades"
		}
		eng.AppendixTitle(appendixTitle)
		for _, b := range doc.Appendix {
			switch b.Kind {
			case markdown.KindHeading:
				eng.Heading(b.Level, markdown.CleanInline(b.Text))
			case markdown.KindParagraph:
				eng.Bullet(markdown.CleanInline(b.Text))
			}
		}
	}

	return eng.Output(w)
}

// place lays out an acquired image next to its paragraph, handling the
// text-only degradations: no raster, or a lone directive without text.
func (a *Assembler) place(eng *layout.Engine, para string, raster *imagegen.Raster) error {
	switch {
	case raster == nil && para == "":
		return nil
	case raster == nil:
		eng.Paragraph(para)
		return nil
	case para == "":
		return eng.PlaceFullWidthImage(raster)
	default:
		_, err := eng.PlaceImageBesideText(para, raster)
		return err
	}
}

// acquire resolves a scene description to a raster via refiner, cache, and
// gateway. Returns (nil, nil) when images are disabled. In graceful mode a
// terminal provider failure yields a placeholder raster; the cache only ever
// stores real provider output.
func (a *Assembler) acquire(ctx context.Context, title, text string) (*imagegen.Raster, error) {
	if a.skipImages {
		return nil, nil
	}

	prompt := markdown.CleanInline(text)
	if a.refiner != nil {
		refined, err := a.refiner.Refine(ctx, title, prompt)
		if err != nil {
			log.Printf("prompt refinement failed, using raw text: %v", err)
		} else if refined != "" {
			prompt = refined
		}
	}
	if a.stylePrefix != "" {
		prompt = a.stylePrefix + ". " + prompt
	}

	raster, err := a.cache.Get(prompt, func(p string) ([]byte, error) {
		a.throttle()
		return a.gateway.Fetch(ctx, p)
	})
	if err != nil {
		if a.strict {
			return nil, err
		}
		log.Printf("image generation failed, substituting placeholder: %v", err)
		return imagegen.NewPlaceholderRaster(a.width, a.height), nil
	}
	if a.width > 0 && raster.Width > 2*a.width {
		// Some providers ignore the size hint; bound what we embed.
		raster = raster.Resize(a.width, int(float64(a.width)*float64(raster.Height)/float64(raster.Width)))
	}
	return raster, nil
}

// fatal reports whether an acquisition error must abort the document:
// auth/billing failures in strict mode only.
func (a *Assembler) fatal(err error) bool {
	return a.strict && errors.Is(err, imagegen.ErrAuth)
}

// throttle enforces the configured minimum spacing between provider calls.
// Cache hits never pass through here.
func (a *Assembler) throttle() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.requestDelay <= 0 {
		a.lastCall = time.Now()
		return
	}
	if !a.lastCall.IsZero() {
		if wait := a.requestDelay - time.Since(a.lastCall); wait > 0 {
			time.Sleep(wait)
		}
	}
	a.lastCall = time.Now()
}
