// Package layout places flowed text and illustrations on fixed-size pages.
// The engine owns a running cursor; callers feed it headings, paragraphs,
// and images in document order and it decides pagination.
package layout

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"github.com/mathgym/comicpdf/imagegen"
)

// Side selects which margin column an illustration occupies.
type Side int

const (
	SideRight Side = iota
	SideLeft
)

func (s Side) flip() Side {
	if s == SideRight {
		return SideLeft
	}
	return SideRight
}

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// Cursor is the engine's running position: vertical offset on the current
// page and the page index. Owned exclusively by the engine.
type Cursor struct {
	PageY     float64
	PageIndex int
}

// Config holds the page geometry knobs, all in millimeters.
type Config struct {
	FontPath     string  // optional UTF-8 TTF; core Arial otherwise
	ImageWidth   float64 // column width reserved for an illustration (68)
	Gutter       float64 // gap between image and text columns (6)
	MinTextWidth float64 // below this the text goes full width, image dropped (40)
	LineHeight   float64 // body line height (6)
	BlockGap     float64 // advance after a placed image/text pair (4)
	MaxImageFrac float64 // image width clamp as a fraction of usable width (0.75)
	Margin       float64 // page margin (15)
	BottomMargin float64 // auto-page-break margin (16)
}

func (c *Config) applyDefaults() {
	if c.ImageWidth == 0 {
		c.ImageWidth = 68
	}
	if c.Gutter == 0 {
		c.Gutter = 6
	}
	if c.MinTextWidth == 0 {
		c.MinTextWidth = 40
	}
	if c.LineHeight == 0 {
		c.LineHeight = 6
	}
	if c.BlockGap == 0 {
		c.BlockGap = 4
	}
	if c.MaxImageFrac == 0 {
		c.MaxImageFrac = 0.75
	}
	if c.Margin == 0 {
		c.Margin = 15
	}
	if c.BottomMargin == 0 {
		c.BottomMargin = 16
	}
}

// Placement reports what PlaceImageWithText actually did.
type Placement struct {
	ImagePlaced bool
	PageBroken  bool
	Side        Side
}

// Engine lays out one document onto A4 portrait pages.
type Engine struct {
	pdf      *gofpdf.Fpdf
	cfg      Config
	family   string
	tr       func(string) string
	nextSide Side
}

// headingStyles scales size and weight inversely to heading level.
var headingStyles = []struct {
	size    float64
	lineH   float64
	r, g, b int
}{
	{20, 10, 30, 30, 120},
	{16, 8, 200, 30, 30},
	{14, 7, 0, 0, 0},
	{12, 7, 0, 0, 0},
	{11, 6, 0, 0, 0},
	{10, 6, 0, 0, 0},
}

// NewEngine builds an engine with a fresh single-document PDF.
func NewEngine(cfg Config) *Engine {
	cfg.applyDefaults()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	pdf.SetAutoPageBreak(true, cfg.BottomMargin)

	e := &Engine{pdf: pdf, cfg: cfg, family: "Arial", nextSide: SideRight}
	if cfg.FontPath != "" {
		// Register the same face for every style; bold headings still read
		// fine and accented text keeps its glyphs.
		pdf.AddUTF8Font("DocFont", "", cfg.FontPath)
		pdf.AddUTF8Font("DocFont", "B", cfg.FontPath)
		pdf.AddUTF8Font("DocFont", "I", cfg.FontPath)
		if pdf.Err() {
			pdf.ClearError()
		} else {
			e.family = "DocFont"
		}
	}
	if e.family == "DocFont" {
		// UTF-8 fonts take text as-is.
		e.tr = func(s string) string { return s }
	} else {
		// Core fonts are cp1252; translate so Spanish accents survive.
		e.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(e.family, "", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 10, e.tr(fmt.Sprintf("Página %d", pdf.PageNo())), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont(e.family, "", 12)
	return e
}

// SetMetadata records document properties.
func (e *Engine) SetMetadata(title, author string) {
	e.pdf.SetTitle(title, true)
	e.pdf.SetAuthor(author, true)
}

// Cursor returns the current position.
func (e *Engine) Cursor() Cursor {
	return Cursor{PageY: e.pdf.GetY(), PageIndex: e.pdf.PageNo()}
}

// UsableWidth is the page width between the margins.
func (e *Engine) UsableWidth() float64 {
	pageW, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	return pageW - left - right
}

func (e *Engine) bottomLimit() float64 {
	_, pageH := e.pdf.GetPageSize()
	return pageH - e.cfg.BottomMargin
}

// MeasureText is a dry-run word-wrap: the number of lines text occupies at
// the given column width. It does not move the cursor.
func (e *Engine) MeasureText(width float64, text string) int {
	e.pdf.SetFont(e.family, "", 12)
	return len(e.pdf.SplitText(text, width))
}

// PlaceImageBesideText places the image on the alternating side, flipping
// the side only when an image was actually placed.
func (e *Engine) PlaceImageBesideText(text string, r *imagegen.Raster) (Placement, error) {
	p, err := e.PlaceImageWithText(text, r, e.nextSide)
	if err == nil && p.ImagePlaced {
		e.nextSide = e.nextSide.flip()
	}
	return p, err
}

// PlaceImageWithText reserves a column for the image on the given side and
// flows the justified paragraph into the remaining width. If the remaining
// width would be unreadably narrow, the image is dropped and the text runs
// full width. A page break, when needed, happens before anything is placed,
// so the pair is never split.
func (e *Engine) PlaceImageWithText(text string, r *imagegen.Raster, side Side) (Placement, error) {
	usable := e.UsableWidth()
	imgW := e.cfg.ImageWidth
	if max := e.cfg.MaxImageFrac * usable; imgW > max {
		imgW = max
	}

	textW := usable - imgW - e.cfg.Gutter
	if textW < e.cfg.MinTextWidth {
		e.Paragraph(text)
		return Placement{ImagePlaced: false, Side: side}, nil
	}

	imgH := r.HeightForWidth(imgW)
	textH := float64(e.MeasureText(textW, text)) * e.cfg.LineHeight
	needed := math.Max(imgH, textH)

	broke := false
	if e.pdf.GetY()+needed > e.bottomLimit() {
		e.pdf.AddPage()
		broke = true
	}

	left, _, right, _ := e.pdf.GetMargins()
	pageW, _ := e.pdf.GetPageSize()
	yStart := e.pdf.GetY()

	var xImg, xText float64
	if side == SideRight {
		xImg = pageW - right - imgW
		xText = left
	} else {
		xImg = left
		xText = left + imgW + e.cfg.Gutter
	}

	if err := e.drawImage(r, xImg, yStart, imgW); err != nil {
		return Placement{}, err
	}

	e.pdf.SetFont(e.family, "", 12)
	e.pdf.SetXY(xText, yStart)
	e.pdf.MultiCell(textW, e.cfg.LineHeight, e.tr(text), "", "J", false)
	yTextEnd := e.pdf.GetY()

	yNext := math.Max(yStart+imgH, yTextEnd) + e.cfg.BlockGap
	e.pdf.SetXY(left, yNext)

	return Placement{ImagePlaced: true, PageBroken: broke, Side: side}, e.err()
}

// PlaceFullWidthImage places an unaccompanied image (cover, lone manual
// directive) across the full usable width, with its own page-break check.
func (e *Engine) PlaceFullWidthImage(r *imagegen.Raster) error {
	usable := e.UsableWidth()
	imgH := r.HeightForWidth(usable)
	if e.pdf.GetY()+imgH > e.bottomLimit() {
		e.pdf.AddPage()
	}
	left, _, _, _ := e.pdf.GetMargins()
	y := e.pdf.GetY()
	if err := e.drawImage(r, left, y, usable); err != nil {
		return err
	}
	e.pdf.SetXY(left, y+imgH+e.cfg.BlockGap)
	return e.err()
}

// Heading renders a heading sized and weighted by level (1..6).
func (e *Engine) Heading(level int, text string) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	st := headingStyles[level-1]
	e.pdf.Ln(2)
	e.pdf.SetFont(e.family, "B", st.size)
	e.pdf.SetTextColor(st.r, st.g, st.b)
	e.pdf.MultiCell(0, st.lineH, e.tr(text), "", "L", false)
	e.pdf.SetTextColor(0, 0, 0)
	e.pdf.SetFont(e.family, "", 12)
	e.pdf.Ln(1)
}

// Paragraph flows a full-width justified paragraph.
func (e *Engine) Paragraph(text string) {
	e.pdf.SetFont(e.family, "", 12)
	e.pdf.MultiCell(0, e.cfg.LineHeight, e.tr(text), "", "J", false)
	e.pdf.Ln(2)
}

// TitlePage emits the cover: optional full-width illustration, then the
// centered title.
func (e *Engine) TitlePage(title string, cover *imagegen.Raster) error {
	if cover != nil {
		if err := e.PlaceFullWidthImage(cover); err != nil {
			return err
		}
	}
	e.pdf.SetFont(e.family, "B", 20)
	e.pdf.SetTextColor(30, 30, 120)
	e.pdf.MultiCell(0, 10, e.tr(title), "", "C", false)
	e.pdf.SetTextColor(0, 0, 0)
	e.pdf.SetFont(e.family, "", 12)
	e.pdf.Ln(3)
	return e.err()
}

// AppendixTitle starts the activities page.
func (e *Engine) AppendixTitle(title string) {
	e.pdf.AddPage()
	e.pdf.SetFont(e.family, "B", 18)
	e.pdf.SetTextColor(30, 100, 30)
	e.pdf.MultiCell(0, 10, e.tr(title), "", "C", false)
	e.pdf.SetTextColor(0, 0, 0)
	e.pdf.SetFont(e.family, "", 12)
	e.pdf.Ln(5)
}

// Bullet renders one itemized appendix entry.
func (e *Engine) Bullet(text string) {
	e.pdf.SetFont(e.family, "", 12)
	e.pdf.MultiCell(0, e.cfg.LineHeight, e.tr("• "+text), "", "J", false)
	e.pdf.Ln(2)
}

// PageBreak forces a new page.
func (e *Engine) PageBreak() {
	e.pdf.AddPage()
}

// Output writes the finished document and closes the underlying PDF.
func (e *Engine) Output(w io.Writer) error {
	if err := e.pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// drawImage embeds the raster via a scoped temp file, removed immediately
// after gofpdf has read it. JPEG keeps illustrated documents small.
func (e *Engine) drawImage(r *imagegen.Raster, x, y, w float64) error {
	data, err := r.EncodeJPEG(88)
	if err != nil {
		return err
	}
	path := filepath.Join(os.TempDir(), "comicpdf-img-"+uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing temp image: %w", err)
	}
	defer os.Remove(path)

	opts := gofpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	e.pdf.ImageOptions(path, x, y, w, 0, false, opts, 0, "")
	return e.err()
}

func (e *Engine) err() error {
	if e.pdf.Err() {
		return fmt.Errorf("layout: %v", e.pdf.Error())
	}
	return nil
}
