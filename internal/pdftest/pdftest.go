// Package pdftest builds small synthetic PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes one synthetic page.
type Page struct {
	Width, Height float64
	Rotate        int
	// Text is drawn in Helvetica, wrapped at 60 characters per line.
	Text string
	// Drawings is the number of stroked line segments.
	Drawings int
	// Image places a 1x1 gray image XObject on the page.
	Image bool
}

// Letter returns a US Letter portrait page.
func Letter() Page { return Page{Width: 612, Height: 792} }

// LetterLandscape returns a US Letter landscape page.
func LetterLandscape() Page { return Page{Width: 792, Height: 612} }

const (
	objCatalog = 1
	objPages   = 2
	objFont    = 3
	objImage   = 4
	firstPage  = 5
)

// Build renders pages into a complete PDF file.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	stream := func(n int, dict string, data []byte) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n", n, dict, len(data))
		buf.Write(data)
		buf.WriteString("\nendstream\nendobj\n")
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	obj(objCatalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", objPages))

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}
	obj(objPages, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj(objFont, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	stream(objImage, "/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", []byte{0x80})

	for i, p := range pages {
		pageObj, contentObj := firstPage+2*i, firstPage+2*i+1
		res := fmt.Sprintf("/Font << /F1 %d 0 R >>", objFont)
		if p.Image {
			res += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", objImage)
		}
		rotate := ""
		if p.Rotate != 0 {
			rotate = fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		obj(pageObj, fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %g %g]%s /Resources << %s >> /Contents %d 0 R >>",
			objPages, p.Width, p.Height, rotate, res, contentObj))
		stream(contentObj, "", content(p))
	}

	xref := buf.Len()
	size := firstPage + 2*len(pages)
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for n := 1; n < size; n++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, objCatalog, xref)
	return buf.Bytes()
}

func content(p Page) []byte {
	var b bytes.Buffer
	if p.Text != "" {
		b.WriteString("BT /F1 10 Tf 12 TL 36 ")
		fmt.Fprintf(&b, "%g Td\n", p.Height-48)
		for _, line := range wrap(p.Text, 60) {
			fmt.Fprintf(&b, "(%s) Tj T*\n", escape(line))
		}
		b.WriteString("ET\n")
	}
	for i := 0; i < p.Drawings; i++ {
		y := 40 + float64(i%20)*6
		fmt.Fprintf(&b, "36 %g m 200 %g l S\n", y, y)
	}
	if p.Image {
		b.WriteString("q 100 0 0 100 300 300 cm /Im1 Do Q\n")
	}
	return b.Bytes()
}

func wrap(s string, n int) []string {
	var out []string
	r := []rune(s)
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// WriteFile builds a PDF into dir/name and returns its path.
func WriteFile(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("write pdf fixture: %v", err)
	}
	return path
}

// Words returns a string of n characters of readable filler text.
func Words(n int) string {
	const filler = "The quick brown fox jumps over the lazy dog. "
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(filler)
	}
	return b.String()[:n]
}
