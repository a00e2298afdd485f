package statuscheck

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketChecker reports whether the configured object store is reachable.
type BucketChecker interface {
	HeadBucket(ctx context.Context) error
}

// Checker aggregates health checks for external dependencies.
type Checker struct {
	redis          RedisPinger
	bucket         BucketChecker
	libreOfficeBin string
	layoutEngine   string
	lookPath       func(string) (string, error)
}

// Options configures the Checker.
type Options struct {
	// Redis is nil when job status is kept in memory.
	Redis RedisPinger
	// Bucket is nil when no S3 bucket is configured.
	Bucket         BucketChecker
	LibreOfficeBin string
	LayoutEngine   string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis        Status `json:"redis"`
	S3           Status `json:"s3"`
	LibreOffice  Status `json:"libreoffice"`
	MuPDF        Status `json:"mupdf"`
	LayoutEngine string `json:"layout_engine"`
}

// Ready reports whether the selected layout engine can run.
func (s Summary) Ready() bool {
	if s.LayoutEngine == "libreoffice" {
		return s.LibreOffice.OK && s.MuPDF.OK
	}
	return s.MuPDF.OK
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	bin := opts.LibreOfficeBin
	if bin == "" {
		bin = "soffice"
	}
	engine := opts.LayoutEngine
	if engine == "" {
		engine = "mupdf"
	}
	return &Checker{
		redis:          opts.Redis,
		bucket:         opts.Bucket,
		libreOfficeBin: bin,
		layoutEngine:   engine,
		lookPath:       exec.LookPath,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:        c.checkRedis(ctx),
		S3:           c.checkS3(ctx),
		LibreOffice:  c.checkLibreOffice(),
		MuPDF:        c.checkMuPDF(),
		LayoutEngine: c.layoutEngine,
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: true, Message: "Not configured (in-memory job status)"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.bucket == nil {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.bucket.HeadBucket(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkLibreOffice() Status {
	if _, err := c.lookPath(c.libreOfficeBin); err != nil {
		return Status{OK: false, Message: "Binary not found"}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkMuPDF() Status {
	return Status{OK: true, Message: "Linked"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
