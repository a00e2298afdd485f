package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfword/internal/config"
	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/pdftest"
	"github.com/local/pdfword/internal/statuscheck"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.FromEnv()
	cfg.Convert.LayoutEngine = "mupdf"
	cfg.Convert.TempDir = t.TempDir()
	cfg.Redis.URL = ""
	cfg.S3.Bucket = ""
	return cfg
}

func run(t *testing.T, cfg config.Config, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := New(cfg).WithOutput(&stdout, &stderr).ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pdfword version")
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	text := pdftest.Letter()
	text.Text = pdftest.Words(400)
	wide := pdftest.LetterLandscape()
	wide.Text = pdftest.Words(300)
	in := pdftest.WriteFile(t, dir, "in.pdf", text, wide)
	out := filepath.Join(dir, "out", "in.docx")

	stdout, _, err := run(t, testConfig(t), "convert", in, out)
	require.NoError(t, err)
	assert.Equal(t, "Successfully converted "+in+" to "+out+" with advanced page analysis.\n", stdout)

	info, err := docx.Inspect(out)
	require.NoError(t, err)
	require.Len(t, info.Sections, 2)
	assert.Equal(t, docx.Portrait, info.Sections[0].Orientation)
	assert.Equal(t, docx.Landscape, info.Sections[1].Orientation)
	assert.Contains(t, info.Sections[0].Text(), "quick brown fox")
}

func TestConvertCommandJSON(t *testing.T) {
	dir := t.TempDir()
	scan := pdftest.Letter()
	scan.Image = true
	in := pdftest.WriteFile(t, dir, "scan.pdf", scan)
	out := filepath.Join(dir, "scan.docx")

	stdout, _, err := run(t, testConfig(t), "convert", "--json", "--dpi", "50", in, out)
	require.NoError(t, err)

	var rep convertReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep))
	assert.Equal(t, 1, rep.Pages)
	assert.Equal(t, 1, rep.ImagePages)
	assert.Empty(t, rep.Failures)
}

func TestConvertCommandMissingInput(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.pdf")
	out := filepath.Join(dir, "out.docx")

	_, stderr, err := run(t, testConfig(t), "convert", missing, out)
	require.Error(t, err)
	assert.Contains(t, stderr, "Error during validate: input file not found: "+missing)
	assert.NoFileExists(t, out)
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.Convert.LayoutEngine = "typewriter"
	_, _, err := run(t, cfg, "version")
	require.Error(t, err)
}

func TestToolCommands(t *testing.T) {
	dir := t.TempDir()
	a := pdftest.WriteFile(t, dir, "a.pdf", pdftest.Letter(), pdftest.Letter())
	b := pdftest.WriteFile(t, dir, "b.pdf", pdftest.LetterLandscape())
	merged := filepath.Join(dir, "merged.pdf")
	cfg := testConfig(t)

	out, _, err := run(t, cfg, "merge", merged, a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully merged 2 files")

	out, _, err = run(t, cfg, "split", merged, filepath.Join(dir, "parts"), "1-2,3")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully split PDF into 2 files")
	assert.FileExists(t, filepath.Join(dir, "parts", "split_2.pdf"))

	out, _, err = run(t, cfg, "images", "--dpi", "24", b, filepath.Join(dir, "img"))
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully converted 1 pages to images")
	assert.FileExists(t, filepath.Join(dir, "img", "page_1.png"))

	_, _, err = run(t, cfg, "split", merged, filepath.Join(dir, "bad"), "3-1")
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	d := docx.New()
	d.Last().AddText("hello")
	s := d.AddSection()
	s.Orientation = docx.Landscape
	s.Width, s.Height = 11, 8.5
	path := filepath.Join(dir, "doc.docx")
	require.NoError(t, d.Save(path))

	out, _, err := run(t, testConfig(t), "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sections: 2")
	assert.Contains(t, out, "landscape 11.00x8.50 in")

	out, _, err = run(t, testConfig(t), "inspect", "--json", path)
	require.NoError(t, err)
	var info docx.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Len(t, info.Sections, 2)
	assert.Equal(t, "landscape", info.Sections[1].Orient)
}

func TestStatusCommand(t *testing.T) {
	out, _, err := run(t, testConfig(t), "status")
	require.NoError(t, err)
	var s statuscheck.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.True(t, s.MuPDF.OK)
	assert.Equal(t, "mupdf", s.LayoutEngine)
}

func TestConvertFailureIsReported(t *testing.T) {
	_, _, err := run(t, testConfig(t), "convert", "/does/not/exist.pdf", filepath.Join(t.TempDir(), "x.docx"))
	require.Error(t, err)
	assert.True(t, Reported(err))

	_, _, err = run(t, testConfig(t), "merge", "out.pdf", "/does/not/exist.pdf")
	require.Error(t, err)
	assert.False(t, Reported(err))
}
