package filetype

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Known MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEZIP  = "application/zip"
)

// Info contains detected file type information
type Info struct {
	MIMEType    string
	Extension   string
	Description string
}

// IsPDF reports whether the content is a PDF document.
func (i *Info) IsPDF() bool { return i.MIMEType == MIMEPDF }

// IsDOCX reports whether the content is a Word document.
func (i *Info) IsDOCX() bool { return i.MIMEType == MIMEDOCX }

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type using magic bytes, not filename
func (d *Detector) Detect(filePath string) (*Info, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	info := d.fromMIME(mtype, filepath.Ext(filePath))
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", filePath).Msg("detected file type")
	return info, nil
}

// DetectReader detects the type of a stream from its leading bytes. name is
// only consulted for ZIP containers.
func (d *Detector) DetectReader(r io.Reader, name string) (*Info, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return d.fromMIME(mtype, filepath.Ext(name)), nil
}

func (d *Detector) fromMIME(mtype *mimetype.MIME, nameExt string) *Info {
	info := &Info{MIMEType: mtype.String(), Extension: mtype.Extension()}

	// Bare ZIP detection for Office containers falls back to the file extension.
	if mtype.Is(MIMEZIP) && strings.EqualFold(nameExt, ".docx") {
		log.Debug().Str("original", info.MIMEType).Msg("overriding ZIP detection based on extension")
		info.MIMEType = MIMEDOCX
		info.Extension = ".docx"
	}
	if mtype.Is(MIMEDOCX) {
		info.MIMEType = MIMEDOCX
	}
	if mtype.Is(MIMEPDF) {
		info.MIMEType = MIMEPDF
	}

	switch {
	case info.MIMEType == MIMEPDF:
		info.Description = "PDF document"
	case info.MIMEType == MIMEDOCX:
		info.Description = "Microsoft Word document"
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.Description = "Image file"
	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", info.MIMEType)
	}
	return info
}
