package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pdfword/internal/config"
)

func TestParseS3URL(t *testing.T) {
	tests := []struct {
		ref     string
		want    Location
		wantErr bool
	}{
		{"s3://bucket/key.pdf", Location{"bucket", "key.pdf"}, false},
		{"s3://bucket/nested/path/doc.pdf", Location{"bucket", "nested/path/doc.pdf"}, false},
		{"s3://bucket", Location{}, true},
		{"s3:///key", Location{}, true},
		{"s3://bucket/", Location{}, true},
		{"https://bucket/key", Location{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ParseS3URL(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ref, got.String())
		})
	}
}

func TestRefKinds(t *testing.T) {
	assert.True(t, IsS3("s3://b/k"))
	assert.True(t, IsHTTP("https://example.com/a.pdf"))
	assert.True(t, IsRemote("http://example.com/a.pdf"))
	assert.False(t, IsRemote("/tmp/a.pdf"))
	assert.False(t, IsRemote("file:///tmp/a.pdf"))
	assert.Equal(t, "/tmp/a.pdf", LocalPath("file:///tmp/a.pdf"))
}

func TestFetchLocal(t *testing.T) {
	c := New(config.S3Config{}, t.TempDir())
	path, cleanup, err := c.Fetch(context.Background(), "file:///srv/in.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/srv/in.pdf", path)
	cleanup()
}

func TestFetchHTTP(t *testing.T) {
	body := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doc.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	defer srv.Close()

	tmp := t.TempDir()
	c := New(config.S3Config{}, tmp)

	path, cleanup, err := c.Fetch(context.Background(), srv.URL+"/doc.pdf#page=2")
	require.NoError(t, err)
	assert.Equal(t, tmp, filepath.Dir(path))
	matched, _ := filepath.Match(HTTPTempPattern, filepath.Base(path))
	assert.True(t, matched)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	cleanup()
	assert.NoFileExists(t, path)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tmp := t.TempDir()
	c := New(config.S3Config{}, tmp)
	_, _, err := c.Fetch(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")

	left, _ := filepath.Glob(filepath.Join(tmp, "*"))
	assert.Empty(t, left)
}

func TestFetchInvalidS3(t *testing.T) {
	c := New(config.S3Config{}, t.TempDir())
	_, _, err := c.Fetch(context.Background(), "s3://only-bucket")
	require.Error(t, err)
}

func TestPublishLocalCopies(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.docx")
	require.NoError(t, os.WriteFile(src, []byte("docx"), 0o644))

	c := New(config.S3Config{}, dir)
	dst := filepath.Join(dir, "nested", "out.docx")
	got, err := c.Publish(context.Background(), src, "file://"+dst)
	require.NoError(t, err)
	assert.Equal(t, dst, got)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "docx", string(data))

	got, err = c.Publish(context.Background(), dst, dst)
	require.NoError(t, err)
	assert.Equal(t, dst, got)
}

func TestPublishRejectsHTTP(t *testing.T) {
	c := New(config.S3Config{}, t.TempDir())
	_, err := c.Publish(context.Background(), "x.docx", "https://example.com/out.docx")
	require.Error(t, err)
}

func TestResultRef(t *testing.T) {
	_, err := New(config.S3Config{}, "").ResultRef("job", "out.docx")
	require.ErrorIs(t, err, ErrBucketNotConfigured)

	ref, err := New(config.S3Config{Bucket: "docs"}, "").ResultRef("job-1", "out.docx")
	require.NoError(t, err)
	assert.Equal(t, "s3://docs/results/job-1/out.docx", ref)

	require.ErrorIs(t, New(config.S3Config{}, "").HeadBucket(context.Background()), ErrBucketNotConfigured)
}
