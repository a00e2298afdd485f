package mupdf

import (
	"math"
	"sort"
	"strings"
)

// Paragraph is a run of consecutive lines that read as one block.
type Paragraph struct {
	Top, Left float64
	Spans     []Span
}

// Text returns the paragraph's plain text.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, s := range p.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Element is either a paragraph or a picture, in reading order.
type Element struct {
	Top       float64
	Paragraph *Paragraph
	Picture   *Picture
}

// Elements groups the page's lines into paragraphs and interleaves the
// pictures by their vertical position.
func (p *Page) Elements() []Element {
	lines := append([]Line(nil), p.Lines...)
	sortByTop(lines)

	var out []Element
	var cur *Paragraph
	var prev Line
	for i, line := range lines {
		if i > 0 && cur != nil && joinsPrevious(prev, line) {
			appendLine(cur, line)
			prev = line
			continue
		}
		cur = &Paragraph{Top: line.Top, Left: line.Left, Spans: append([]Span(nil), line.Spans...)}
		out = append(out, Element{Top: line.Top, Paragraph: cur})
		prev = line
	}
	for i := range p.Pictures {
		pic := p.Pictures[i]
		out = append(out, Element{Top: pic.Top, Picture: &pic})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Top < out[j].Top })
	return out
}

// joinsPrevious reports whether next continues the paragraph ending in prev:
// same font size, at most about one line of vertical distance, and either
// the same left edge or a sentence that carries on in lower case.
func joinsPrevious(prev, next Line) bool {
	size := prev.Size()
	if size <= 0 {
		size = 12
	}
	if math.Abs(next.Size()-prev.Size()) > 1 {
		return false
	}
	gap := next.Top - prev.Top
	if gap <= 0 || gap > 1.6*size {
		return false
	}
	if math.Abs(next.Left-prev.Left) <= 2 {
		return true
	}
	return continuesSentence(prev.Text(), next.Text())
}

func continuesSentence(prev, next string) bool {
	trimmed := strings.TrimSpace(prev)
	nextTrimmed := strings.TrimSpace(next)
	if trimmed == "" || nextTrimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?', ':', ';':
		return false
	}
	firstChar := nextTrimmed[0]
	return firstChar >= 'a' && firstChar <= 'z'
}

func appendLine(p *Paragraph, next Line) {
	spans := append([]Span(nil), next.Spans...)
	if len(spans) == 0 {
		return
	}
	last := &p.Spans[len(p.Spans)-1]
	last.Text = strings.TrimRight(last.Text, " ")
	spans[0].Text = strings.TrimLeft(spans[0].Text, " ")
	if !strings.HasSuffix(last.Text, "-") {
		last.Text += " "
	}
	for _, s := range spans {
		if sameStyle(*last, s) {
			last.Text += s.Text
			continue
		}
		p.Spans = append(p.Spans, s)
		last = &p.Spans[len(p.Spans)-1]
	}
}
