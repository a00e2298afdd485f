package converter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// LibreOffice converts PDF pages to DOCX with LibreOffice's Writer PDF import.
type LibreOffice struct {
	bin       string
	timeout   time.Duration
	tempDir   string
	semaphore chan struct{}

	checkOnce sync.Once
	checkErr  error
	version   string
}

// NewLibreOffice creates a new LibreOffice converter instance
func NewLibreOffice(bin string, timeout time.Duration, maxWorkers int, tempDir string) *LibreOffice {
	if bin == "" {
		bin = "soffice"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &LibreOffice{
		bin:       bin,
		timeout:   timeout,
		tempDir:   tempDir,
		semaphore: make(chan struct{}, maxWorkers),
	}
}

func (l *LibreOffice) Name() string { return "libreoffice" }

// Available verifies LibreOffice is installed. The result is cached.
func (l *LibreOffice) Available() error {
	l.checkOnce.Do(func() { l.checkErr = l.checkInstallation() })
	return l.checkErr
}

// Version returns the detected LibreOffice version string.
func (l *LibreOffice) Version() string {
	_ = l.Available()
	return l.version
}

// checkInstallation verifies LibreOffice is available
func (l *LibreOffice) checkInstallation() error {
	path, err := exec.LookPath(l.bin)
	if err != nil {
		return fmt.Errorf("%w: %s not found in PATH: %v", ErrUnavailable, l.bin, err)
	}
	output, err := exec.Command(path, "--version").Output()
	if err != nil {
		return fmt.Errorf("%w: %s --version: %v", ErrUnavailable, l.bin, err)
	}
	l.version = strings.TrimSpace(string(output))
	log.Info().Str("version", l.version).Str("bin", path).Msg("LibreOffice found")
	return nil
}

// ConvertPages extracts pages start..end into a scratch PDF and converts it.
func (l *LibreOffice) ConvertPages(ctx context.Context, src, dst string, start, end int) error {
	startTime := time.Now()

	if err := l.Available(); err != nil {
		return err
	}

	select {
	case l.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.semaphore }()

	if err := validateInput(src); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	workDir, err := os.MkdirTemp(l.tempDir, "pdfword-lo-*")
	if err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	pagesPDF := filepath.Join(workDir, "pages.pdf")
	selection := []string{fmt.Sprintf("%d-%d", start+1, end+1)}
	if err := api.TrimFile(src, pagesPDF, selection, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("extract pages %d-%d: %w", start+1, end+1, err)
	}

	// Unique profile directory so parallel runs don't fight over the user profile lock.
	profileDir := filepath.Join(workDir, fmt.Sprintf("libreoffice_profile_%s", uuid.New().String()))
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	cmd := exec.Command(
		l.bin,
		fmt.Sprintf("-env:UserInstallation=file://%s", profileDir),
		"--headless",
		"--infilter=writer_pdf_import",
		"--convert-to", "docx:MS Word 2007 XML",
		"--outdir", workDir,
		pagesPDF,
	)
	log.Debug().Str("cmd", strings.Join(cmd.Args, " ")).Msg("LibreOffice command")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", l.bin, err)
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("conversion failed: %w", err)
		}
	case <-time.After(l.timeout):
		_ = cmd.Process.Kill()
		<-done
		return fmt.Errorf("conversion timeout after %v", l.timeout)
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	}

	expectedOutput := getExpectedOutputPath(pagesPDF, workDir)
	if _, err := os.Stat(expectedOutput); err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if err := moveFile(expectedOutput, dst); err != nil {
		return fmt.Errorf("move output to %s: %w", dst, err)
	}

	log.Debug().
		Int("start", start+1).
		Int("end", end+1).
		Str("output", dst).
		Dur("duration", time.Since(startTime)).
		Msg("LibreOffice conversion successful")
	return nil
}

// validateInput checks if the input file is readable
func validateInput(filePath string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file")
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty")
	}
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("file not readable: %w", err)
	}
	file.Close()
	return nil
}

// getExpectedOutputPath calculates the path where LibreOffice will create the output file
func getExpectedOutputPath(inputPath, outputDir string) string {
	baseName := filepath.Base(inputPath)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	return filepath.Join(outputDir, nameWithoutExt+".docx")
}
