package docx

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
	data     []byte
}

func defaultNamespaces() map[string]string {
	return map[string]string{
		"w":   "http://schemas.openxmlformats.org/wordprocessingml/2006/main",
		"r":   nsRelationships,
		"wp":  "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing",
		"a":   "http://schemas.openxmlformats.org/drawingml/2006/main",
		"pic": "http://schemas.openxmlformats.org/drawingml/2006/picture",
		"mc":  nsMarkupCompat,
	}
}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".emf":  "image/x-emf",
	".wmf":  "image/x-wmf",
	".svg":  "image/svg+xml",
}

// Save writes the document to p, replacing any existing file. The package
// is written to a temporary file next to p and renamed into place, so a
// failed save leaves nothing behind.
func (d *Document) Save(p string) error {
	f, err := os.CreateTemp(filepath.Dir(p), ".pdfword-save-*")
	if err != nil {
		return fmt.Errorf("docx: create %s: %w", p, err)
	}
	tmp := f.Name()
	fail := func(err error) error {
		f.Close()
		os.Remove(tmp)
		return err
	}
	w := bufio.NewWriter(f)
	if err := d.WriteTo(w); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("docx: write %s: %w", p, err))
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("docx: close %s: %w", p, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("docx: save %s: %w", p, err)
	}
	return nil
}

// WriteTo writes the document as a .docx package.
func (d *Document) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", d.contentTypesXML()},
		{"_rels/.rels", packageRels},
		{"word/document.xml", d.documentXML()},
		{"word/_rels/document.xml.rels", d.documentRels()},
		{"word/styles.xml", stylesXML},
		{"word/settings.xml", settingsXML},
		{"docProps/core.xml", coreXML(time.Now().UTC())},
		{"docProps/app.xml", appXML},
	}
	for _, p := range parts {
		if err := writePart(zw, p.name, []byte(p.body)); err != nil {
			return err
		}
	}
	for _, r := range d.rels {
		if r.data == nil {
			continue
		}
		if err := writePart(zw, path.Join("word", r.Target), r.data); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("docx: finish package: %w", err)
	}
	return nil
}

func writePart(zw *zip.Writer, name string, data []byte) error {
	pw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("docx: create part %s: %w", name, err)
	}
	if _, err := pw.Write(data); err != nil {
		return fmt.Errorf("docx: write part %s: %w", name, err)
	}
	return nil
}

func (d *Document) documentXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString("<w:document")
	prefixes := make([]string, 0, len(d.namespaces))
	for p := range d.namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, p, escape(d.namespaces[p]))
	}
	if len(d.ignorable) > 0 {
		fmt.Fprintf(&b, ` mc:Ignorable="%s"`, escape(strings.Join(d.ignorable, " ")))
	}
	b.WriteString("><w:body>")
	last := len(d.sections) - 1
	for i, s := range d.sections {
		for _, el := range s.body {
			b.Write(el)
		}
		if i < last {
			b.WriteString("<w:p><w:pPr>")
			b.WriteString(s.sectPr(i == 0))
			b.WriteString("</w:pPr></w:p>")
			continue
		}
		b.WriteString(s.sectPr(i == 0))
	}
	b.WriteString("</w:body></w:document>")
	return b.String()
}

func (d *Document) contentTypesXML() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	seen := map[string]bool{}
	for _, r := range d.rels {
		if r.data == nil {
			continue
		}
		ext := strings.ToLower(path.Ext(r.Target))
		if seen[ext] {
			continue
		}
		seen[ext] = true
		ct, ok := contentTypes[ext]
		if !ok {
			ct = "application/octet-stream"
		}
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, strings.TrimPrefix(ext, "."), ct)
	}
	b.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)
	b.WriteString(`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>`)
	b.WriteString(`<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	b.WriteString(`</Types>`)
	return b.String()
}

func (d *Document) documentRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings" Target="settings.xml"/>`)
	for _, r := range d.rels {
		mode := ""
		if r.External {
			mode = ` TargetMode="External"`
		}
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"%s/>`, r.ID, r.Type, escape(r.Target), mode)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func coreXML(now time.Time) string {
	ts := now.Format(time.RFC3339)
	return xmlHeader + `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:creator>pdfword</dc:creator>` +
		`<dcterms:created xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:created>` +
		`<dcterms:modified xsi:type="dcterms:W3CDTF">` + ts + `</dcterms:modified>` +
		`</cp:coreProperties>`
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const packageRels = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appXML = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>pdfword</Application></Properties>`

const settingsXML = xmlHeader + `<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:defaultTabStop w:val="720"/><w:compat><w:compatSetting w:name="compatibilityMode" w:uri="http://schemas.microsoft.com/office/word" w:val="15"/></w:compat></w:settings>`

const stylesXML = xmlHeader + `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
	`<w:docDefaults><w:rPrDefault><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/><w:sz w:val="22"/><w:szCs w:val="22"/><w:lang w:val="en-US"/></w:rPr></w:rPrDefault>` +
	`<w:pPrDefault><w:pPr><w:spacing w:after="120" w:line="259" w:lineRule="auto"/></w:pPr></w:pPrDefault></w:docDefaults>` +
	`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>` +
	`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/><w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>` +
	`</w:styles>`
