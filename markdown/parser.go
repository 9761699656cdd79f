package markdown

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	directiveRe = regexp.MustCompile(`(?i)^!\[prompt\]\s+(.+?)\s*$`)
)

// DefaultAppendixMarker matches the reserved level-2 heading that starts the
// appendix ("Actividades" in the source material).
const DefaultAppendixMarker = "actividades"

// Parser turns raw text into an ordered block sequence. The zero value uses
// the default appendix marker.
type Parser struct {
	// AppendixMarker is compared case-insensitively against trimmed level-2
	// heading text. Once matched, every subsequent block is routed to the
	// appendix until end of input.
	AppendixMarker string
}

// Parse scans the input line by line. It is total: anything that is not a
// heading, a directive, or a blank line is paragraph text, so there is no
// error return. Heading markers deeper than six hashes fall through as
// ordinary text.
func (p Parser) Parse(text string) *Document {
	marker := p.AppendixMarker
	if marker == "" {
		marker = DefaultAppendixMarker
	}
	marker = strings.ToLower(strings.TrimSpace(marker))

	doc := &Document{}
	var para []string
	inAppendix := false

	appendBlock := func(b Block) {
		if inAppendix {
			doc.Appendix = append(doc.Appendix, b)
		} else {
			doc.Blocks = append(doc.Blocks, b)
		}
	}
	flush := func() {
		if len(para) == 0 {
			return
		}
		appendBlock(Block{Kind: KindParagraph, Text: strings.TrimSpace(strings.Join(para, " "))})
		para = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			level := len(m[1])
			heading := strings.TrimSpace(m[2])
			if level == 1 && doc.Title == "" {
				doc.Title = heading
			}
			// The marker heading itself stays in the main flow (the
			// assembler gives the appendix page its own title); everything
			// after it is appendix, and the mode never exits.
			if level == 2 && !inAppendix && strings.ToLower(heading) == marker {
				appendBlock(Block{Kind: KindHeading, Level: level, Text: heading})
				inAppendix = true
				continue
			}
			appendBlock(Block{Kind: KindHeading, Level: level, Text: heading})
			continue
		}
		if m := directiveRe.FindStringSubmatch(line); m != nil {
			flush()
			appendBlock(Block{Kind: KindImageDirective, Text: strings.TrimSpace(m[1])})
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		para = append(para, strings.TrimSpace(line))
	}
	flush()

	return doc
}

// Parse parses text with the default settings.
func Parse(text string) *Document {
	return Parser{}.Parse(text)
}
