package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// SectionInfo summarizes one section of a saved document.
type SectionInfo struct {
	Orientation Orientation `json:"-"`
	Orient      string      `json:"orientation"`
	Width       float64     `json:"width_in"`
	Height      float64     `json:"height_in"`
	Margins     Margins     `json:"margins_in"`
	Paragraphs  []string    `json:"paragraphs"`
	Pictures    int         `json:"pictures"`
}

// Text joins the section's paragraph texts with newlines.
func (s SectionInfo) Text() string { return strings.Join(s.Paragraphs, "\n") }

// Info describes a .docx package.
type Info struct {
	Sections []SectionInfo `json:"sections"`
	Media    int           `json:"media"`
}

// Inspect reads the .docx at path.
func Inspect(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return InspectBytes(data)
}

// InspectBytes reads a .docx package from memory.
func InspectBytes(data []byte) (*Info, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx: open package: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	info := &Info{}
	for _, zf := range zr.File {
		files[zf.Name] = zf
		if strings.HasPrefix(zf.Name, "word/media/") {
			info.Media++
		}
	}
	doc, err := readZipFile(files, "word/document.xml")
	if err != nil {
		return nil, err
	}
	info.Sections, err = readSections(doc)
	if err != nil {
		return nil, err
	}
	return info, nil
}

func readSections(data []byte) ([]SectionInfo, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var (
		out      []SectionInfo
		cur      SectionInfo
		para     strings.Builder
		pDepth   int
		inText   bool
		inSect   bool
		closeOnP bool
	)
	flush := func() {
		cur.Orient = cur.Orientation.String()
		out = append(out, cur)
		cur = SectionInfo{}
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx: parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if pDepth == 0 {
					para.Reset()
				}
				pDepth++
			case "t":
				inText = true
			case "br":
				if pDepth > 0 {
					para.WriteByte('\n')
				}
			case "drawing", "pict":
				cur.Pictures++
			case "sectPr":
				inSect = true
			case "pgSz":
				if inSect {
					cur.Width = twipsAttr(t, "w")
					cur.Height = twipsAttr(t, "h")
					if attr(t, "orient") == "landscape" {
						cur.Orientation = Landscape
					}
				}
			case "pgMar":
				if inSect {
					cur.Margins = Margins{
						Top:    twipsAttr(t, "top"),
						Right:  twipsAttr(t, "right"),
						Bottom: twipsAttr(t, "bottom"),
						Left:   twipsAttr(t, "left"),
					}
				}
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "sectPr":
				inSect = false
				if pDepth > 0 {
					closeOnP = true
				} else {
					flush()
				}
			case "p":
				pDepth--
				if pDepth > 0 {
					continue
				}
				if text := para.String(); text != "" || !closeOnP {
					cur.Paragraphs = append(cur.Paragraphs, text)
				}
				if closeOnP {
					closeOnP = false
					flush()
				}
			}
		}
	}
	return out, nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func twipsAttr(se xml.StartElement, local string) float64 {
	v, err := strconv.Atoi(attr(se, local))
	if err != nil {
		return 0
	}
	return float64(v) / 1440
}
