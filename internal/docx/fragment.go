package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Relationship types carried between documents.
const (
	RelImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsMarkupCompat  = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

// ErrNoBody is returned when a package has no readable w:body.
var ErrNoBody = errors.New("docx: document has no body")

// ErrUnsupportedRel is returned when body content references a relationship
// that cannot be carried into another document (charts, OLE objects, ...).
var ErrUnsupportedRel = errors.New("docx: unsupported relationship")

// Rel is a relationship referenced from fragment content. Media relationships
// carry their bytes; hyperlinks carry an external target.
type Rel struct {
	ID       string
	Type     string
	Target   string
	External bool
	Data     []byte
}

// Fragment is the ordered top-level body content of another document,
// without its section properties.
type Fragment struct {
	Elements   [][]byte
	Rels       []Rel
	Namespaces map[string]string
	Ignorable  []string

	relPrefix string
}

// Len reports the number of top-level elements.
func (f *Fragment) Len() int { return len(f.Elements) }

// ParseFragment reads a .docx package and returns its body content. Section
// properties are dropped; image and hyperlink relationships referenced by the
// content are kept along with the media bytes. Any other referenced
// relationship fails with ErrUnsupportedRel.
func ParseFragment(data []byte) (*Fragment, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx: open package: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, zf := range zr.File {
		files[zf.Name] = zf
	}
	docXML, err := readZipFile(files, "word/document.xml")
	if err != nil {
		return nil, err
	}
	f, err := parseBody(docXML)
	if err != nil {
		return nil, err
	}
	if err := f.loadRels(files); err != nil {
		return nil, err
	}
	return f, nil
}

func readZipFile(files map[string]*zip.File, name string) ([]byte, error) {
	zf, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("docx: missing part %s", name)
	}
	rc, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("docx: open %s: %w", name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("docx: read %s: %w", name, err)
	}
	return b, nil
}

func parseBody(data []byte) (*Fragment, error) {
	f := &Fragment{Namespaces: map[string]string{}, relPrefix: "r"}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	inBody := false
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docx: parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				if t.Name.Local == "document" {
					f.readRoot(t)
				}
				if t.Name.Local == "body" {
					inBody = true
				}
				continue
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("docx: parse %s: %w", t.Name.Local, err)
			}
			if t.Name.Local == "sectPr" {
				continue
			}
			end := dec.InputOffset()
			el := make([]byte, end-off)
			copy(el, data[off:end])
			f.Elements = append(f.Elements, nestedSectPr.ReplaceAll(el, nil))
		case xml.EndElement:
			if inBody && t.Name.Local == "body" {
				return f, nil
			}
		}
	}
	if !inBody {
		return nil, ErrNoBody
	}
	return f, nil
}

// nestedSectPr matches section breaks carried inside paragraph properties.
var nestedSectPr = regexp.MustCompile(`(?s)<w:sectPr\b[^>]*/>|<w:sectPr\b.*?</w:sectPr>`)

func (f *Fragment) readRoot(root xml.StartElement) {
	for _, a := range root.Attr {
		switch {
		case a.Name.Space == "xmlns":
			f.Namespaces[a.Name.Local] = a.Value
			if a.Value == nsRelationships {
				f.relPrefix = a.Name.Local
			}
		case a.Name.Space == nsMarkupCompat && a.Name.Local == "Ignorable":
			f.Ignorable = strings.Fields(a.Value)
		}
	}
}

type relsXML struct {
	Rels []struct {
		ID         string `xml:"Id,attr"`
		Type       string `xml:"Type,attr"`
		Target     string `xml:"Target,attr"`
		TargetMode string `xml:"TargetMode,attr"`
	} `xml:"Relationship"`
}

func (f *Fragment) loadRels(files map[string]*zip.File) error {
	used := f.referencedRels()
	if len(used) == 0 {
		return nil
	}
	raw, err := readZipFile(files, "word/_rels/document.xml.rels")
	if err != nil {
		return err
	}
	var rx relsXML
	if err := xml.Unmarshal(raw, &rx); err != nil {
		return fmt.Errorf("docx: parse relationships: %w", err)
	}
	for _, r := range rx.Rels {
		if _, ok := used[r.ID]; !ok {
			continue
		}
		delete(used, r.ID)
		rel := Rel{ID: r.ID, Type: r.Type, Target: r.Target, External: r.TargetMode == "External"}
		switch {
		case r.Type == RelHyperlink:
		case r.Type == RelImage && !rel.External:
			name := path.Clean(path.Join("word", r.Target))
			if strings.HasPrefix(r.Target, "/") {
				name = strings.TrimPrefix(r.Target, "/")
			}
			data, err := readZipFile(files, name)
			if err != nil {
				return err
			}
			rel.Data = data
			rel.Target = path.Base(name)
		case r.Type == RelImage:
		default:
			return fmt.Errorf("%w: %s (%s)", ErrUnsupportedRel, r.ID, path.Base(r.Type))
		}
		f.Rels = append(f.Rels, rel)
	}
	if len(used) > 0 {
		missing := make([]string, 0, len(used))
		for id := range used {
			missing = append(missing, id)
		}
		sort.Strings(missing)
		return fmt.Errorf("docx: undefined relationships %s", strings.Join(missing, ", "))
	}
	return nil
}

func (f *Fragment) relAttr() *regexp.Regexp {
	return regexp.MustCompile(`(\s` + regexp.QuoteMeta(f.relPrefix) + `:(?:embed|id|link|pict)=")([^"]*)(")`)
}

func (f *Fragment) referencedRels() map[string]struct{} {
	re := f.relAttr()
	used := map[string]struct{}{}
	for _, el := range f.Elements {
		for _, m := range re.FindAllSubmatch(el, -1) {
			used[string(m[2])] = struct{}{}
		}
	}
	return used
}

var docPrID = regexp.MustCompile(`(<wp:docPr\b[^>]*?\bid=")(\d+)(")`)

func (d *Document) importFragment(s *Section, f *Fragment) error {
	for prefix, uri := range f.Namespaces {
		if cur, ok := d.namespaces[prefix]; ok && cur != uri {
			return fmt.Errorf("docx: namespace prefix %q bound to %s and %s", prefix, cur, uri)
		}
		d.namespaces[prefix] = uri
	}
	for _, p := range f.Ignorable {
		if !containsString(d.ignorable, p) {
			d.ignorable = append(d.ignorable, p)
		}
	}

	remap := make(map[string]string, len(f.Rels))
	for _, r := range f.Rels {
		id := d.newRelID()
		remap[r.ID] = id
		rel := relationship{ID: id, Type: r.Type, Target: r.Target, External: r.External}
		if r.Type == RelImage && !r.External {
			d.nextMedia++
			ext := strings.ToLower(path.Ext(r.Target))
			if ext == "" {
				ext = ".png"
			}
			rel.Target = fmt.Sprintf("media/image%d%s", d.nextMedia, ext)
			rel.data = r.Data
		}
		d.rels = append(d.rels, rel)
	}

	re := f.relAttr()
	for _, el := range f.Elements {
		out := re.ReplaceAllFunc(el, func(m []byte) []byte {
			sub := re.FindSubmatch(m)
			id, ok := remap[string(sub[2])]
			if !ok {
				return m
			}
			return []byte(string(sub[1]) + id + string(sub[3]))
		})
		out = docPrID.ReplaceAllFunc(out, func(m []byte) []byte {
			sub := docPrID.FindSubmatch(m)
			return []byte(string(sub[1]) + strconv.Itoa(d.newDocPrID()) + string(sub[3]))
		})
		s.body = append(s.body, out)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
