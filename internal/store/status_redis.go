package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStatus stores job status as a Redis hash per job.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

// NewRedisStatus connects to redisURL and pings it. Keys are
// <prefix><jobID> and expire ttl after the last update.
func NewRedisStatus(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStatus{client: c, keyNS: prefix, ttl: ttl}, nil
}

func (s *RedisStatus) key(jobID string) string { return s.keyNS + jobID }

func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
	m := map[string]interface{}{
		"status":   st.Status,
		"progress": st.Progress,
		"message":  st.Message,
		"input":    st.Input,
		"output":   st.Output,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, err := json.Marshal(st.Metadata)
		if err != nil {
			return err
		}
		m["metadata"] = string(b)
	}

	key := s.key(jobID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, m)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{
		Status:  res["status"],
		Message: res["message"],
		Input:   res["input"],
		Output:  res["output"],
	}
	// ignore parse error; default 0
	st.Progress, _ = strconv.Atoi(res["progress"])
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st, true, nil
}

// Ping checks the connection.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStatus) Close() error { return s.client.Close() }
