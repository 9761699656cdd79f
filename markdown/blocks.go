package markdown

// Kind classifies a parsed block.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindImageDirective
)

// Block is one parsed unit of the document: a heading, a paragraph, or a
// manual image directive. Blocks are immutable once parsed and their order
// defines document flow.
type Block struct {
	Kind  Kind
	Level int // heading level 1..6, zero otherwise
	Text  string
}

// IsHeading reports whether the block is a heading of the given levels.
func (b Block) IsHeading(levels ...int) bool {
	if b.Kind != KindHeading {
		return false
	}
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if b.Level == l {
			return true
		}
	}
	return false
}

// Document is one parsed input file. Title comes from the first level-1
// heading; callers supply a fallback when there is none. Appendix holds all
// blocks following the appendix marker heading; they are rendered on their
// own page and never illustrated.
type Document struct {
	Title    string
	Blocks   []Block
	Appendix []Block
}
