package filetype

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	dir := t.TempDir()
	pdf := pdftest.WriteFile(t, dir, "doc.bin", pdftest.Letter())

	word := filepath.Join(dir, "out.docx")
	require.NoError(t, docx.New().Save(word))

	text := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(text, []byte("just text pretending to be a pdf"), 0o644))

	d := New()
	cases := []struct {
		name    string
		path    string
		wantPDF bool
		wantDoc bool
	}{
		{"pdf by magic bytes", pdf, true, false},
		{"docx", word, false, true},
		{"extension lies", text, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			info, err := d.Detect(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPDF, info.IsPDF(), info.MIMEType)
			assert.Equal(t, tc.wantDoc, info.IsDOCX(), info.MIMEType)
		})
	}
}

func TestDetectReader(t *testing.T) {
	info, err := New().DetectReader(bytes.NewReader(pdftest.Build(pdftest.Letter())), "upload")
	require.NoError(t, err)
	assert.True(t, info.IsPDF())
	assert.Equal(t, "PDF document", info.Description)
}

func TestDetectMissingFile(t *testing.T) {
	_, err := New().Detect(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
