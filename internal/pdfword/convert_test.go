package pdfword

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/pdfword/internal/config"
	"github.com/local/pdfword/internal/docx"
	"github.com/local/pdfword/internal/pdfsource"
	"github.com/local/pdfword/internal/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type convertFixture struct {
	dir    string
	input  string
	output string
	doc    *fakeDoc
	eng    *fakeEngine
	conv   *Converter
}

func newConvertFixture(t *testing.T, pages ...pdfsource.Page) *convertFixture {
	t.Helper()
	dir := t.TempDir()
	f := &convertFixture{
		dir:    dir,
		input:  pdftest.WriteFile(t, dir, "in.pdf", pdftest.Letter()),
		output: filepath.Join(dir, "out", "result.docx"),
		doc:    &fakeDoc{pages: pages},
		eng:    &fakeEngine{},
	}
	cfg := config.ConvertConfig{TempDir: dir, ImageDPI: 20}
	f.conv = NewWithEngine(cfg, f.eng, f.doc.opener())
	return f
}

func requireFatal(t *testing.T, err error, stage Stage) *FatalError {
	t.Helper()
	var fe *FatalError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, stage, fe.Stage)
	return fe
}

func TestConvertWritesDocument(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792), scanPage(792, 612))

	res, err := f.conv.Convert(context.Background(), f.input, f.output)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, res.Count(StrategyLayout))
	assert.Equal(t, 1, res.Count(StrategyImage))
	assert.Empty(t, res.Failures)
	assert.Equal(t, "Successfully converted "+f.input+" to "+f.output+" with advanced page analysis.", res.Message())
	assert.Equal(t, res.Message(), StatusMessage(res, nil))
	assert.Equal(t, f.input, f.doc.path)
	requireNoTempArtifacts(t, f.dir)

	info, err := docx.Inspect(f.output)
	require.NoError(t, err)
	require.Len(t, info.Sections, 2)
	assert.Equal(t, docx.Portrait, info.Sections[0].Orientation)
	assert.Equal(t, docx.Landscape, info.Sections[1].Orientation)
}

func TestConvertReportsPartialFailure(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792), textPage(612, 792), textPage(612, 792))
	f.eng.fail = map[int]error{1: errEngine}

	res, err := f.conv.Convert(context.Background(), f.input, f.output)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Message(), "1 of 3 pages could not be converted.")
	assert.FileExists(t, f.output)
	requireNoTempArtifacts(t, f.dir)

	info, err := docx.Inspect(f.output)
	require.NoError(t, err)
	require.Len(t, info.Sections, 3)
	assert.Contains(t, info.Sections[1].Text(), "page 2")
}

func TestConvertOverwritesExistingOutput(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	require.NoError(t, os.MkdirAll(filepath.Dir(f.output), 0o755))
	writeFile(t, f.output, []byte("stale"))

	_, err := f.conv.Convert(context.Background(), f.input, f.output)
	require.NoError(t, err)
	info, err := docx.Inspect(f.output)
	require.NoError(t, err)
	assert.Len(t, info.Sections, 1)
}

func TestConvertMissingInput(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	missing := filepath.Join(f.dir, "nope.pdf")

	res, err := f.conv.Convert(context.Background(), missing, f.output)
	assert.Nil(t, res)
	requireFatal(t, err, StageValidate)

	var nf *InputNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, missing, nf.Path)
	assert.Equal(t, "Error during validate: input file not found: "+missing, StatusMessage(nil, err))
	assert.NoFileExists(t, f.output)
	assert.Empty(t, f.eng.calls)
}

func TestConvertRejectsNonPDF(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	txt := writeFile(t, filepath.Join(f.dir, "notes.pdf"), []byte("just some notes, not a pdf\n"))

	_, err := f.conv.Convert(context.Background(), txt, f.output)
	requireFatal(t, err, StageValidate)
	var inv *InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.NotEqual(t, "application/pdf", inv.MIME)
	assert.NoFileExists(t, f.output)
}

func TestConvertRejectsDirectory(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	_, err := f.conv.Convert(context.Background(), f.dir, f.output)
	requireFatal(t, err, StageValidate)
}

func TestConvertMissingDependency(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	f.eng.missing = errors.New("soffice not found")

	_, err := f.conv.Convert(context.Background(), f.input, f.output)
	requireFatal(t, err, StageDependency)
	var dm *DependencyMissingError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, "fake", dm.Name)
	assert.NoFileExists(t, f.output)
	assert.Empty(t, f.eng.calls)
}

func TestConvertSaveFailure(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	blocker := writeFile(t, filepath.Join(f.dir, "blocker"), []byte("x"))
	out := filepath.Join(blocker, "result.docx")

	_, err := f.conv.Convert(context.Background(), f.input, out)
	requireFatal(t, err, StageSave)
	var se *SaveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, out, se.Path)
	requireNoTempArtifacts(t, f.dir)
}

func TestConvertCancelled(t *testing.T) {
	f := newConvertFixture(t, textPage(612, 792))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.conv.Convert(ctx, f.input, f.output)
	requireFatal(t, err, StageAssemble)
	assert.NoFileExists(t, f.output)
}

func TestNewWithEngineThresholds(t *testing.T) {
	c := NewWithEngine(config.ConvertConfig{DrawingThreshold: 9, TextThreshold: 40}, &fakeEngine{}, (&fakeDoc{}).opener())
	assert.Equal(t, Thresholds{Drawings: 9, TextLength: 40}, c.Assembler.Classifier.Thresholds)

	c = NewWithEngine(config.ConvertConfig{}, &fakeEngine{}, (&fakeDoc{}).opener())
	assert.Equal(t, DefaultThresholds, c.Assembler.Classifier.Thresholds)
}

func TestNewRejectsUnknownEngine(t *testing.T) {
	_, err := New(config.ConvertConfig{LayoutEngine: "typewriter"})
	require.Error(t, err)
}

func TestErrorMessages(t *testing.T) {
	perr := &PageConversionError{Page: 4, Strategy: StrategyImage, Err: errors.New("boom")}
	assert.Equal(t, "page 5 (image): boom", perr.Error())
	assert.Equal(t, "[Conversion failed for page 5: boom]", perr.Placeholder())

	fe := &FatalError{Stage: StageSave, Err: &SaveError{Path: "x.docx", Err: errors.New("disk full")}}
	assert.Equal(t, "Error during save: could not save x.docx: disk full", fe.Error())
	assert.Equal(t, "Error: plain", StatusMessage(nil, errors.New("plain")))
}
