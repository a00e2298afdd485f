package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

// Alignment values accepted by Paragraph.Align.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "both"
)

// Run is a span of uniformly formatted text. Size is in points; zero keeps
// the style default.
type Run struct {
	Text   string
	Bold   bool
	Italic bool
	Size   float64
	Font   string
}

// Paragraph is a block of runs.
type Paragraph struct {
	Runs  []Run
	Align string
}

// Text reports the paragraph's plain text.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func (p Paragraph) xml() []byte {
	var b bytes.Buffer
	b.WriteString("<w:p>")
	if p.Align != "" && p.Align != AlignLeft {
		fmt.Fprintf(&b, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, p.Align)
	}
	for _, r := range p.Runs {
		r.writeTo(&b)
	}
	b.WriteString("</w:p>")
	return b.Bytes()
}

func (r Run) writeTo(b *bytes.Buffer) {
	b.WriteString("<w:r>")
	if r.Bold || r.Italic || r.Size > 0 || r.Font != "" {
		b.WriteString("<w:rPr>")
		if r.Font != "" {
			f := escape(r.Font)
			fmt.Fprintf(b, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:cs="%s"/>`, f, f, f)
		}
		if r.Bold {
			b.WriteString("<w:b/>")
		}
		if r.Italic {
			b.WriteString("<w:i/>")
		}
		if r.Size > 0 {
			// half-points
			fmt.Fprintf(b, `<w:sz w:val="%d"/>`, int(math.Round(r.Size*2)))
		}
		b.WriteString("</w:rPr>")
	}
	lines := strings.Split(r.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		if line == "" {
			continue
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		b.WriteString(escape(line))
		b.WriteString("</w:t>")
	}
	b.WriteString("</w:r>")
}

func escape(s string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(stripInvalid(s))); err != nil {
		return ""
	}
	return b.String()
}

// stripInvalid drops runes XML 1.0 does not allow, which extracted PDF text
// sometimes carries.
func stripInvalid(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20, r == 0xFFFE, r == 0xFFFF:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}
