package pdfword

import (
	"errors"
	"fmt"
)

// ErrNoPages is returned when the source document has no pages.
var ErrNoPages = errors.New("document has no pages")

// Stage names where a fatal conversion error happened.
type Stage string

const (
	StageValidate   Stage = "validate"
	StageDependency Stage = "dependency"
	StageFetch      Stage = "fetch"
	StageOpen       Stage = "open"
	StageAssemble   Stage = "assemble"
	StageSave       Stage = "save"
	StagePublish    Stage = "publish"
)

// FatalError aborts a conversion. No output document is produced.
type FatalError struct {
	Stage Stage
	Err   error
}

func (e *FatalError) Error() string { return fmt.Sprintf("Error during %s: %v", e.Stage, e.Err) }
func (e *FatalError) Unwrap() error { return e.Err }

func fatal(stage Stage, err error) *FatalError { return &FatalError{Stage: stage, Err: err} }

// InputNotFoundError is returned when the source path does not exist.
type InputNotFoundError struct {
	Path string
}

func (e *InputNotFoundError) Error() string { return fmt.Sprintf("input file not found: %s", e.Path) }

// InvalidInputError is returned when the source is not a PDF.
type InvalidInputError struct {
	Path string
	MIME string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("input %s is not a PDF (detected %s)", e.Path, e.MIME)
}

// DependencyMissingError is returned when the layout engine cannot run.
type DependencyMissingError struct {
	Name string
	Err  error
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("required converter %s is not available: %v", e.Name, e.Err)
}
func (e *DependencyMissingError) Unwrap() error { return e.Err }

// PageConversionError is a per-page failure. It never aborts the document;
// the page gets an inline placeholder instead.
type PageConversionError struct {
	Page     int // 0-based
	Strategy Strategy
	Err      error
}

func (e *PageConversionError) Error() string {
	return fmt.Sprintf("page %d (%s): %v", e.Page+1, e.Strategy, e.Err)
}
func (e *PageConversionError) Unwrap() error { return e.Err }

// Placeholder is the text written in place of a page that failed.
func (e *PageConversionError) Placeholder() string {
	return fmt.Sprintf("[Conversion failed for page %d: %v]", e.Page+1, e.Err)
}

// SaveError is returned when the assembled document cannot be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string { return fmt.Sprintf("could not save %s: %v", e.Path, e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }
