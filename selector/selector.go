// Package selector decides which paragraphs of a parsed document receive an
// illustration. Author-supplied ![prompt] directives always win; otherwise
// paragraphs are ranked by a small heuristic rewarding substantial,
// pedagogically important text.
package selector

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mathgym/comicpdf/markdown"
)

// Weights tunes the automatic scoring heuristic. The defaults come from the
// historical generator revisions; they are deliberately not load-bearing
// precision.
type Weights struct {
	LengthDivisor   float64 // base score = len(text)/LengthDivisor, capped
	LengthCap       float64
	AfterHeading    float64 // paragraph immediately after an H2/H3
	Keyword         float64 // pedagogical keyword present
	ShortPenalty    float64 // applied when len(text) < ShortLimit
	ShortLimit      int
	ListPenalty     float64 // leading bullet or numbered-list marker
	CodePenalty     float64 // fenced code span marker present
}

// DefaultWeights returns the standard scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		LengthDivisor: 400,
		LengthCap:     1.5,
		AfterHeading:  0.6,
		Keyword:       0.7,
		ShortPenalty:  -0.6,
		ShortLimit:    80,
		ListPenalty:   -0.8,
		CodePenalty:   -1.0,
	}
}

// keywords signal pedagogical importance; the corpus is bilingual.
var keywords = []string{
	"definición", "definition",
	"concepto clave", "key concept",
	"importante", "important",
	"conclusión", "conclusion",
	"ejemplo", "example",
	"problema", "problem",
}

var listItemRe = regexp.MustCompile(`^\s*([-*+]\s|\d+[.)]\s)`)

// Select returns the indices of blocks to illustrate, in ascending document
// order, never more than maxImages. If any manual image directive exists the
// result is exactly the directive indices and no paragraph is scored.
func Select(blocks []markdown.Block, maxImages int) []int {
	return SelectWeighted(blocks, maxImages, DefaultWeights())
}

// SelectWeighted is Select with explicit scoring weights.
func SelectWeighted(blocks []markdown.Block, maxImages int, w Weights) []int {
	if maxImages <= 0 {
		return nil
	}

	var directives []int
	for i, b := range blocks {
		if b.Kind == markdown.KindImageDirective {
			directives = append(directives, i)
		}
	}
	if len(directives) > 0 {
		if len(directives) > maxImages {
			directives = directives[:maxImages]
		}
		return directives
	}

	type scored struct {
		index int
		score float64
	}
	var candidates []scored
	for i, b := range blocks {
		if b.Kind != markdown.KindParagraph {
			continue
		}
		candidates = append(candidates, scored{index: i, score: score(blocks, i, w)})
	}

	// Stable sort keeps document order on ties.
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > maxImages {
		candidates = candidates[:maxImages]
	}

	picked := make([]int, 0, len(candidates))
	for _, c := range candidates {
		picked = append(picked, c.index)
	}
	sort.Ints(picked)
	return picked
}

func score(blocks []markdown.Block, i int, w Weights) float64 {
	text := blocks[i].Text
	s := float64(len(text)) / w.LengthDivisor
	if s > w.LengthCap {
		s = w.LengthCap
	}
	if i > 0 && blocks[i-1].IsHeading(2, 3) {
		s += w.AfterHeading
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			s += w.Keyword
			break
		}
	}
	if len(text) < w.ShortLimit {
		s += w.ShortPenalty
	}
	if listItemRe.MatchString(text) {
		s += w.ListPenalty
	}
	if strings.Contains(text, "```") {
		s += w.CodePenalty
	}
	return s
}
