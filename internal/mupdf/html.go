package mupdf

import (
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Span is a run of text sharing one style.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Size   float64 // points
	Font   string
}

// Line is one positioned text line of a page.
type Line struct {
	Top, Left float64
	Spans     []Span
}

// Text returns the concatenated span text.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Size returns the largest font size on the line.
func (l Line) Size() float64 {
	size := 0.0
	for _, s := range l.Spans {
		if s.Size > size {
			size = s.Size
		}
	}
	return size
}

// Picture is an image placed on the page. Dimensions are in points.
type Picture struct {
	Top, Left     float64
	Width, Height float64
	Data          []byte
	Ext           string
}

// Page is the positioned content of one PDF page.
type Page struct {
	Width, Height float64
	Lines         []Line
	Pictures      []Picture
}

// ParsePageHTML reads the HTML MuPDF produces for a single page.
func ParsePageHTML(r io.Reader) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}
	p := &Page{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Div:
				st := parseStyle(attr(n, "style"))
				if w, ok := st["width"]; ok && p.Width == 0 {
					p.Width = parsePt(w)
					p.Height = parsePt(st["height"])
				}
			case atom.P:
				if line, ok := parseLine(n); ok {
					p.Lines = append(p.Lines, line)
				}
				return
			case atom.Img:
				if pic, ok := parsePicture(n); ok {
					p.Pictures = append(p.Pictures, pic)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return p, nil
}

func parseLine(n *html.Node) (Line, bool) {
	st := parseStyle(attr(n, "style"))
	line := Line{Top: parsePt(st["top"]), Left: parsePt(st["left"])}
	var collect func(n *html.Node, s Span)
	collect = func(n *html.Node, s Span) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			s.Text = n.Data
			if k := len(line.Spans) - 1; k >= 0 && sameStyle(line.Spans[k], s) {
				line.Spans[k].Text += s.Text
				return
			}
			line.Spans = append(line.Spans, s)
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.B, atom.Strong:
				s.Bold = true
			case atom.I, atom.Em:
				s.Italic = true
			case atom.Span:
				st := parseStyle(attr(n, "style"))
				if v, ok := st["font-size"]; ok {
					s.Size = parsePt(v)
				}
				if v, ok := st["font-family"]; ok {
					s.Font = fontFamily(v)
				}
				if v := st["font-weight"]; v == "bold" || v == "700" {
					s.Bold = true
				}
				if st["font-style"] == "italic" {
					s.Italic = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c, s)
		}
	}
	collect(n, Span{})
	if strings.TrimSpace(line.Text()) == "" {
		return line, false
	}
	return line, true
}

func sameStyle(a, b Span) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Size == b.Size && a.Font == b.Font
}

func parsePicture(n *html.Node) (Picture, bool) {
	src := attr(n, "src")
	if !strings.HasPrefix(src, "data:") {
		return Picture{}, false
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return Picture{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return Picture{}, false
	}
	ext := ".png"
	switch strings.TrimSuffix(meta, ";base64") {
	case "image/jpeg", "image/jpg":
		ext = ".jpeg"
	case "image/gif":
		ext = ".gif"
	}
	st := parseStyle(attr(n, "style"))
	pic := Picture{
		Top:    parsePt(st["top"]),
		Left:   parsePt(st["left"]),
		Width:  parsePt(st["width"]),
		Height: parsePt(st["height"]),
		Data:   data,
		Ext:    ext,
	}
	if pic.Width <= 0 || pic.Height <= 0 {
		return Picture{}, false
	}
	return pic, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func parseStyle(s string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

// parsePt reads a CSS length in points; px values are treated as points.
func parsePt(v string) float64 {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(strings.TrimSuffix(v, "pt"), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func fontFamily(v string) string {
	first, _, _ := strings.Cut(v, ",")
	first = strings.Trim(strings.TrimSpace(first), `'"`)
	switch strings.ToLower(first) {
	case "serif", "sans-serif", "monospace":
		return ""
	}
	return first
}

// sortByTop orders lines top to bottom, then left to right.
func sortByTop(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Top != lines[j].Top {
			return lines[i].Top < lines[j].Top
		}
		return lines[i].Left < lines[j].Left
	})
}
