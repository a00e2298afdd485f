package docx

import (
	"fmt"
	"math"
	"strings"
)

// Orientation of a section's pages.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// Margins in inches.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// UniformMargins returns margins with all four sides set to v inches.
func UniformMargins(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// DefaultMargins match the default Word template (1 inch).
var DefaultMargins = UniformMargins(1)

// Section owns page geometry and an ordered run of body elements.
// Width and Height are in inches and are written as given; Orientation is
// stored independently and never swaps them.
type Section struct {
	Orientation Orientation
	Width       float64
	Height      float64
	Margins     Margins

	doc  *Document
	body [][]byte
}

// AvailableWidth is the page width minus the left and right margins.
func (s *Section) AvailableWidth() float64 {
	return s.Width - s.Margins.Left - s.Margins.Right
}

// Len reports how many body elements the section holds.
func (s *Section) Len() int { return len(s.body) }

// AddParagraph appends a paragraph to the section.
func (s *Section) AddParagraph(p Paragraph) {
	s.body = append(s.body, p.xml())
}

// AddText appends a plain paragraph holding text.
func (s *Section) AddText(text string) {
	s.AddParagraph(Paragraph{Runs: []Run{{Text: text}}})
}

// Append copies the fragment's elements into the section, remapping every
// relationship the elements reference into the owning document.
func (s *Section) Append(f *Fragment) error {
	if f == nil {
		return nil
	}
	return s.doc.importFragment(s, f)
}

// Document is an in-memory WordprocessingML document made of sections.
type Document struct {
	sections   []*Section
	rels       []relationship
	namespaces map[string]string
	ignorable  []string
	nextRel    int
	nextMedia  int
	nextDocPr  int
}

// New returns a document holding a single US Letter portrait section.
func New() *Document {
	d := &Document{namespaces: defaultNamespaces()}
	d.sections = []*Section{{
		Orientation: Portrait,
		Width:       8.5,
		Height:      11,
		Margins:     DefaultMargins,
		doc:         d,
	}}
	return d
}

// Sections returns the document's sections in order.
func (d *Document) Sections() []*Section { return d.sections }

// Section returns the i-th section.
func (d *Document) Section(i int) *Section { return d.sections[i] }

// Last returns the current (final) section.
func (d *Document) Last() *Section { return d.sections[len(d.sections)-1] }

// AddSection starts a new section on a new page. The new section inherits
// the geometry of the previous one until the caller overrides it.
func (d *Document) AddSection() *Section {
	prev := d.Last()
	s := &Section{
		Orientation: prev.Orientation,
		Width:       prev.Width,
		Height:      prev.Height,
		Margins:     prev.Margins,
		doc:         d,
	}
	d.sections = append(d.sections, s)
	return s
}

func (d *Document) newRelID() string {
	d.nextRel++
	return fmt.Sprintf("rId%d", d.nextRel+relIDBase)
}

func (d *Document) newDocPrID() int {
	d.nextDocPr++
	return d.nextDocPr
}

// relIDBase leaves room for the fixed relationships (styles, settings).
const relIDBase = 10

func twips(in float64) int { return int(math.Round(in * 1440)) }

func emu(in float64) int64 { return int64(math.Round(in * 914400)) }

func (s *Section) sectPr(first bool) string {
	var b strings.Builder
	b.WriteString("<w:sectPr>")
	if !first {
		b.WriteString(`<w:type w:val="nextPage"/>`)
	}
	fmt.Fprintf(&b, `<w:pgSz w:w="%d" w:h="%d"`, twips(s.Width), twips(s.Height))
	if s.Orientation == Landscape {
		b.WriteString(` w:orient="landscape"`)
	}
	b.WriteString("/>")
	fmt.Fprintf(&b, `<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`,
		twips(s.Margins.Top), twips(s.Margins.Right), twips(s.Margins.Bottom), twips(s.Margins.Left))
	b.WriteString("</w:sectPr>")
	return b.String()
}
