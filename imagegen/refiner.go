package imagegen

import (
	"context"
	"regexp"
	"strings"
)

// Refiner turns a paragraph of document text into a visual scene prompt.
type Refiner interface {
	Refine(ctx context.Context, docTitle, text string) (string, error)
}

// HeuristicRefiner composes a scene prompt from the paragraph's salient
// tokens, without any network call. It always produces a non-empty prompt.
type HeuristicRefiner struct{}

var (
	wordRe   = regexp.MustCompile(`[A-Za-zÁÉÍÓÚÜÑáéíóúüñ\-']{3,}`)
	strongRe = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
)

// stopwords and abstract nouns that make for poor imagery.
var promptStopwords = map[string]bool{
	"el": true, "la": true, "los": true, "las": true, "un": true, "una": true,
	"unos": true, "unas": true, "de": true, "del": true, "en": true, "por": true,
	"para": true, "que": true, "se": true, "con": true, "su": true, "sus": true,
	"al": true, "como": true, "es": true, "son": true, "lo": true, "más": true,
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "are": true, "was": true, "his": true, "her": true,
	"idea": true, "concepto": true, "teoría": true, "historia": true,
	"sistema": true, "proceso": true, "método": true, "información": true,
	"cantidad": true, "tiempo": true, "uso": true, "necesidad": true,
	"tecnología": true, "herramienta": true, "algoritmo": true,
	"números": true, "matemáticas": true, "clase": true, "práctica": true,
}

var negativeCues = []string{
	"text", "letters", "words", "signature", "watermark", "UI", "interface",
	"screenshot", "speech bubble", "subtitle", "logo", "blurry", "deformed",
	"cropped", "ugly", "bad anatomy",
}

func (HeuristicRefiner) Refine(_ context.Context, docTitle, text string) (string, error) {
	raw := text
	if docTitle != "" {
		raw = docTitle + ". " + text
	}
	raw = strongRe.ReplaceAllString(raw, "$1$2")

	seen := make(map[string]bool)
	var tokens []string
	for _, w := range wordRe.FindAllString(raw, -1) {
		lw := strings.ToLower(w)
		if promptStopwords[lw] || seen[lw] {
			continue
		}
		seen[lw] = true
		tokens = append(tokens, lw)
		if len(tokens) == 10 {
			break
		}
	}
	scene := strings.Join(tokens, ", ")
	if scene == "" {
		scene = "main concept"
	}

	positive := "illustration, highly detailed, concept art, cinematic lighting, bright colors, " +
		scene + ", child-friendly, clean composition, soft shadows, high quality"
	return "(" + positive + ") --neg (" + strings.Join(negativeCues, ", ") + ")", nil
}
