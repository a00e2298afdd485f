package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfword/internal/metrics"
)

// tempPrefixes are the names created by the conversion pipeline and the
// input downloaders (pdfword-*, pdfdl-*.pdf, s3pdf-*.pdf).
var tempPrefixes = []string{"pdfword-", "pdfdl-", "s3pdf-"}

// CleanupTemps removes known temporary files and directories in dir older
// than maxAge and returns how many were removed.
func CleanupTemps(dir string, maxAge time.Duration) int {
	if dir == "" {
		dir = os.TempDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("temp sweep failed")
		return 0
	}
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if !hasTempPrefix(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("failed to remove stale temp")
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.AddTempRemoved(removed)
		log.Info().Int("removed", removed).Str("dir", dir).Msg("removed stale temp files")
	}
	return removed
}

func hasTempPrefix(name string) bool {
	for _, p := range tempPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
