// Package storage resolves document references to local files and
// publishes results. A reference is a filesystem path, a file:// URL, an
// http(s):// URL or an s3://bucket/key URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfword/internal/config"
)

// Temp file patterns for downloaded inputs. The stale-file sweep matches them.
const (
	HTTPTempPattern = "pdfdl-*.pdf"
	S3TempPattern   = "s3pdf-*.pdf"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrBucketNotConfigured is returned when an S3 operation needs a default
// bucket and none is set.
var ErrBucketNotConfigured = errors.New("s3 bucket not configured")

// Location is a parsed s3:// reference.
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string { return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key) }

// ParseS3URL parses s3://bucket/key.
func ParseS3URL(ref string) (Location, error) {
	path, ok := strings.CutPrefix(ref, "s3://")
	if !ok {
		return Location{}, fmt.Errorf("invalid s3 url: %s", ref)
	}
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid s3 url: %s", ref)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// IsS3 reports whether ref is an s3:// reference.
func IsS3(ref string) bool { return strings.HasPrefix(ref, "s3://") }

// IsHTTP reports whether ref is an http(s):// reference.
func IsHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// IsRemote reports whether ref needs downloading before use.
func IsRemote(ref string) bool { return IsS3(ref) || IsHTTP(ref) }

// LocalPath strips a file:// prefix.
func LocalPath(ref string) string { return strings.TrimPrefix(ref, "file://") }

// Client fetches and publishes documents. The S3 client is created on first
// use.
type Client struct {
	cfg     config.S3Config
	tempDir string
	http    *http.Client

	once  sync.Once
	s3    *s3.Client
	s3Err error
}

// New returns a client that downloads into tempDir.
func New(cfg config.S3Config, tempDir string) *Client {
	return &Client{
		cfg:     cfg,
		tempDir: tempDir,
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// Bucket returns the default bucket.
func (c *Client) Bucket() string { return c.cfg.Bucket }

func (c *Client) s3Client(ctx context.Context) (*s3.Client, error) {
	c.once.Do(func() {
		opts := []func(*awscfg.LoadOptions) error{}
		if c.cfg.Region != "" {
			opts = append(opts, awscfg.WithRegion(c.cfg.Region))
		}
		if c.cfg.AccessKey != "" && c.cfg.SecretKey != "" {
			opts = append(opts, awscfg.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(c.cfg.AccessKey, c.cfg.SecretKey, ""),
			))
		}
		awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			c.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		c.s3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if c.cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(c.cfg.Endpoint)
			}
			o.UsePathStyle = c.cfg.UsePathStyle
		})
	})
	return c.s3, c.s3Err
}

// Fetch makes ref available as a local file. Remote references are
// downloaded into the temp directory and cleanup removes them; for local
// references cleanup does nothing. A trailing #fragment is ignored.
func (c *Client) Fetch(ctx context.Context, ref string) (string, func(), error) {
	if i := strings.Index(ref, "#"); i >= 0 && IsRemote(ref) {
		ref = ref[:i]
	}
	noop := func() {}

	var (
		path string
		err  error
	)
	switch {
	case IsS3(ref):
		path, err = c.downloadS3(ctx, ref)
	case IsHTTP(ref):
		path, err = c.downloadHTTP(ctx, ref)
	default:
		return LocalPath(ref), noop, nil
	}
	if err != nil {
		return "", noop, err
	}
	return path, func() { removeTemp(path) }, nil
}

func (c *Client) downloadHTTP(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: http %d", url, resp.StatusCode)
	}

	f, err := os.CreateTemp(c.tempDir, HTTPTempPattern)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeTemp(f.Name())
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	log.Info().Str("url", url).Int64("bytes", n).Str("file", filepath.Base(f.Name())).Msg("downloaded pdf to temp")
	return f.Name(), nil
}

func (c *Client) downloadS3(ctx context.Context, ref string) (string, error) {
	loc, err := ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	cli, err := c.s3Client(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(c.tempDir, S3TempPattern)
	if err != nil {
		return "", err
	}
	n, err := manager.NewDownloader(cli).Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeTemp(f.Name())
		return "", fmt.Errorf("download %s: %w", ref, err)
	}
	log.Info().Str("bucket", loc.Bucket).Str("key", loc.Key).Int64("bytes", n).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 pdf to temp")
	return f.Name(), nil
}

// Publish delivers the local file at src to ref and returns the final
// location. s3:// references are uploaded; anything else is treated as a
// filesystem path and src is copied there.
func (c *Client) Publish(ctx context.Context, src, ref string) (string, error) {
	switch {
	case IsS3(ref):
		return c.upload(ctx, src, ref)
	case IsHTTP(ref):
		return "", fmt.Errorf("cannot publish to %s: http destinations are read-only", ref)
	}
	dst := LocalPath(ref)
	if same, _ := samePath(src, dst); same {
		return dst, nil
	}
	if err := copyFile(src, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (c *Client) upload(ctx context.Context, src, ref string) (string, error) {
	loc, err := ParseS3URL(ref)
	if err != nil {
		return "", err
	}
	cli, err := c.s3Client(ctx)
	if err != nil {
		return "", err
	}
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = manager.NewUploader(cli).Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        f,
		ContentType: aws.String(docxContentType),
		Metadata: map[string]string{
			"name":    filepath.Base(loc.Key),
			"created": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", ref, err)
	}
	log.Info().Str("bucket", loc.Bucket).Str("key", loc.Key).Msg("uploaded docx to s3")
	return loc.String(), nil
}

// ResultRef returns s3://<bucket>/results/<jobID>/<name> for the default
// bucket.
func (c *Client) ResultRef(jobID, name string) (string, error) {
	if c.cfg.Bucket == "" {
		return "", ErrBucketNotConfigured
	}
	return Location{Bucket: c.cfg.Bucket, Key: fmt.Sprintf("results/%s/%s", jobID, name)}.String(), nil
}

// HeadBucket checks that the default bucket is reachable.
func (c *Client) HeadBucket(ctx context.Context) error {
	if c.cfg.Bucket == "" {
		return ErrBucketNotConfigured
	}
	cli, err := c.s3Client(ctx)
	if err != nil {
		return err
	}
	_, err = cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.cfg.Bucket)})
	return err
}

func samePath(a, b string) (bool, error) {
	sa, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(sa, sb), nil
}

func copyFile(src, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", path).Msg("failed to remove downloaded temp file")
	}
}
