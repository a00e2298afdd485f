package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStatus(0)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	start := time.Now()
	require.NoError(t, s.Set(ctx, "job-1", Status{Status: StateProcessing, Progress: 10, Start: &start}))
	st, ok, err := s.Get(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StateProcessing, st.Status)
	assert.False(t, st.Done())

	require.NoError(t, s.Set(ctx, "job-1", Status{Status: StateCompleted, Progress: 100}))
	st, _, _ = s.Get(ctx, "job-1")
	assert.True(t, st.Done())
}

func TestMemoryStatusExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStatus(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "job", Status{Status: StateQueued}))
	now = now.Add(30 * time.Second)
	_, ok, _ := s.Get(ctx, "job")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = s.Get(ctx, "job")
	assert.False(t, ok)
}

func TestRedisStatus(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStatus(ctx, url, "pdfword:test:", time.Minute)
	require.NoError(t, err)
	defer s.Close()

	id := uuid.NewString()
	start := time.Now().UTC().Truncate(time.Millisecond)
	in := Status{
		Status:   StateCompleted,
		Progress: 100,
		Message:  "done",
		Input:    "in.pdf",
		Output:   "out.docx",
		Start:    &start,
		Metadata: map[string]any{"pages": float64(3)},
	}
	require.NoError(t, s.Set(ctx, id, in))

	got, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.Status, got.Status)
	assert.Equal(t, in.Progress, got.Progress)
	assert.Equal(t, in.Output, got.Output)
	assert.True(t, start.Equal(*got.Start))
	assert.Equal(t, in.Metadata, got.Metadata)

	ttl, err := s.client.TTL(ctx, s.key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
