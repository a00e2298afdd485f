// Package orchestrator exposes conversion jobs over HTTP.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfword/internal/config"
	"github.com/local/pdfword/internal/filetype"
	"github.com/local/pdfword/internal/metrics"
	"github.com/local/pdfword/internal/pdfword"
	"github.com/local/pdfword/internal/statuscheck"
	"github.com/local/pdfword/internal/store"
)

// Converter runs one conversion.
type Converter interface {
	ConvertRef(ctx context.Context, st pdfword.Storage, input, output string) (*pdfword.Result, error)
}

type Dependencies struct {
	Converter Converter
	// Storage resolves remote references; nil accepts local paths only.
	Storage pdfword.Storage
	Status  store.StatusStore
	Checker *statuscheck.Checker
	Server  config.ServerConfig
	// TempDir is swept for stale conversion artifacts.
	TempDir string
}

type Orchestrator struct {
	deps     Dependencies
	detector *filetype.Detector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]context.CancelFunc
}

func New(deps Dependencies) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:     deps,
		detector: filetype.New(),
		ctx:      ctx,
		cancel:   cancel,
		jobs:     make(map[string]context.CancelFunc),
	}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("ok")) })
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", o.handleStatus)
	mux.HandleFunc("/convert", o.handleConvert)
	mux.HandleFunc("/convert_upload", o.handleConvertUpload)
	mux.HandleFunc("/jobs/", o.handleJob)
	mux.HandleFunc("/cancel/", o.handleCancel)
	mux.HandleFunc("/download/", o.handleDownload)
}

// Shutdown cancels running jobs and waits for them to record their status.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until all started jobs have finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

type convertReq struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type convertResp struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func (o *Orchestrator) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req convertReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "missing input", http.StatusBadRequest)
		return
	}
	if o.deps.Storage == nil && (isRemote(req.Input) || isRemote(req.Output)) {
		http.Error(w, "remote references are not enabled", http.StatusBadRequest)
		return
	}

	jobID := uuid.NewString()
	output := req.Output
	switch {
	case output == "":
		output = o.resultPath(jobID)
	case !isRemote(output):
		p, ok := o.resultFile(output)
		if !ok {
			http.Error(w, "output must be inside the result dir", http.StatusBadRequest)
			return
		}
		output = p
	}
	o.start(r.Context(), jobID, req.Input, output, "api", "")
	writeJSON(w, http.StatusCreated, convertResp{Status: "ok", JobID: jobID, Message: "Conversion job created"})
}

// handleConvertUpload accepts a multipart "file" field, stores it under the
// upload dir and converts it into the result dir.
func (o *Orchestrator) handleConvertUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	maxBytes := int64(o.deps.Server.MaxUploadMB) << 20
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	info, err := o.detector.DetectReader(file, hdr.Filename)
	if err != nil || !info.IsPDF() {
		http.Error(w, "file is not a PDF", http.StatusUnsupportedMediaType)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		http.Error(w, "cannot read upload", http.StatusInternalServerError)
		return
	}

	if err := os.MkdirAll(o.deps.Server.UploadDir, 0o755); err != nil {
		http.Error(w, "cannot create upload dir", http.StatusInternalServerError)
		return
	}
	jobID := uuid.NewString()
	name := filepath.Base(hdr.Filename)
	if name == "" || name == "." || name == "/" {
		name = "upload.pdf"
	}
	localPath := filepath.Join(o.deps.Server.UploadDir, jobID+"_"+name)
	if err := saveUpload(localPath, file); err != nil {
		log.Error().Err(err).Str("file", localPath).Msg("failed to store upload")
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}

	o.start(r.Context(), jobID, localPath, o.resultPath(jobID), "upload", localPath)
	writeJSON(w, http.StatusCreated, convertResp{Status: "ok", JobID: jobID, Message: "Upload job created"})
}

// createUpload opens the destination of an uploaded file.
var createUpload = func(name string) (io.WriteCloser, error) { return os.Create(name) }

// saveUpload copies src to dst. A failed write or close removes dst.
func saveUpload(dst string, src io.Reader) error {
	out, err := createUpload(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

func (o *Orchestrator) resultPath(jobID string) string {
	return filepath.Join(o.deps.Server.ResultDir, jobID+".docx")
}

// resultFile resolves a client-supplied local output against the result dir.
// Relative names are taken relative to it; anything outside it is refused.
func (o *Orchestrator) resultFile(name string) (string, bool) {
	name = strings.TrimPrefix(name, "file://")
	root, err := filepath.Abs(o.deps.Server.ResultDir)
	if err != nil {
		return "", false
	}
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}

// start records the queued job and converts it in the background. upload,
// when set, is removed once the job ends.
func (o *Orchestrator) start(ctx context.Context, jobID, input, output, source, upload string) {
	now := time.Now()
	_ = o.deps.Status.Set(ctx, jobID, store.Status{
		Status:   store.StateQueued,
		Message:  "queued",
		Input:    input,
		Output:   output,
		Start:    &now,
		Metadata: map[string]any{"source": source},
	})
	log.Info().Str("job_id", jobID).Str("input", input).Str("output", output).Str("source", source).Msg("job created")

	jobCtx, cancel := context.WithCancel(o.ctx)
	o.mu.Lock()
	o.jobs[jobID] = cancel
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.run(jobCtx, jobID, input, output, source, &now)
		if upload != "" {
			_ = os.Remove(upload)
		}
		o.finish(jobID)
	}()
}

// finish forgets jobID and sweeps stale temp files once no other job is
// running. Temp files of a running job are never swept, however old.
func (o *Orchestrator) finish(jobID string) {
	o.mu.Lock()
	delete(o.jobs, jobID)
	idle := len(o.jobs) == 0
	o.mu.Unlock()
	if idle && o.deps.Server.TempMaxAge > 0 {
		CleanupTemps(o.deps.TempDir, o.deps.Server.TempMaxAge)
	}
}

func (o *Orchestrator) run(ctx context.Context, jobID, input, output, source string, start *time.Time) {
	metrics.JobStarted()
	defer metrics.JobFinished()

	// Status writes use a fresh context so a cancelled job can still record
	// its outcome.
	bg := context.Background()
	_ = o.deps.Status.Set(bg, jobID, store.Status{
		Status: store.StateProcessing, Progress: 10, Message: "converting",
		Input: input, Output: output, Start: start, Metadata: map[string]any{"source": source},
	})

	res, err := o.deps.Converter.ConvertRef(ctx, o.deps.Storage, input, output)
	end := time.Now()
	st := store.Status{
		Input:    input,
		Output:   output,
		Start:    start,
		End:      &end,
		Progress: 100,
		Message:  pdfword.StatusMessage(res, err),
		Metadata: map[string]any{"source": source},
	}
	if err != nil {
		st.Status = store.StateFailed
		var fe *pdfword.FatalError
		if errors.As(err, &fe) {
			st.Metadata["stage"] = string(fe.Stage)
		}
		if errors.Is(err, context.Canceled) {
			st.Metadata["cancelled"] = true
		}
		log.Error().Err(err).Str("job_id", jobID).Msg("job failed")
	} else {
		st.Status = store.StateCompleted
		st.Output = res.Output
		st.Metadata["pages"] = res.Pages
		st.Metadata["layout_pages"] = res.Count(pdfword.StrategyLayout)
		st.Metadata["image_pages"] = res.Count(pdfword.StrategyImage)
		st.Metadata["failed_pages"] = len(res.Failures)
		st.Metadata["duration_ms"] = res.Duration.Milliseconds()
		log.Info().Str("job_id", jobID).Int("pages", res.Pages).Int("failed_pages", len(res.Failures)).Msg("job completed")
	}
	if err := o.deps.Status.Set(bg, jobID, st); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to record job status")
	}
}

func (o *Orchestrator) handleJob(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/jobs/")
	st, ok, err := o.deps.Status.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    st.Status == store.StateCompleted,
		"job_id":     id,
		"status":     st.Status,
		"progress":   st.Progress,
		"message":    st.Message,
		"input":      st.Input,
		"output":     st.Output,
		"start_time": st.Start,
		"end_time":   st.End,
		"metadata":   st.Metadata,
	})
}

func (o *Orchestrator) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/cancel/")
	o.mu.Lock()
	cancel, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		http.Error(w, "no running job", http.StatusNotFound)
		return
	}
	cancel()
	log.Info().Str("job_id", id).Msg("job cancel requested")
	w.WriteHeader(http.StatusAccepted)
}

// handleDownload serves the DOCX of a finished job whose output is local.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/download/")
	st, ok, err := o.deps.Status.Get(r.Context(), id)
	if err != nil || !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if st.Status != store.StateCompleted {
		http.Error(w, "not ready", http.StatusAccepted)
		return
	}
	if st.Output == "" || isRemote(st.Output) {
		http.Error(w, "result not available locally", http.StatusNotFound)
		return
	}
	f, err := os.Open(st.Output)
	if err != nil {
		http.Error(w, "result not available", http.StatusNotFound)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		http.Error(w, "failed to read", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", filetype.MIMEDOCX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.docx", id))
	http.ServeContent(w, r, id+".docx", fi.ModTime(), f)
}

func (o *Orchestrator) handleStatus(w http.ResponseWriter, r *http.Request) {
	if o.deps.Checker == nil {
		http.Error(w, "status checks disabled", http.StatusNotFound)
		return
	}
	s := o.deps.Checker.Summary(r.Context())
	code := http.StatusOK
	if !s.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, s)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
