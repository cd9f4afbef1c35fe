package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-service/internal/models"
)

// RedisJobStore keeps upload job records in Redis so job status
// survives restarts and is visible to every instance. Records expire
// after the configured TTL.
type RedisJobStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisJobStore(client *redis.Client, ttl time.Duration) *RedisJobStore {
	return &RedisJobStore{
		client: client,
		ttl:    ttl,
	}
}

func jobKey(id string) string {
	return fmt.Sprintf("upload:job:%s", id)
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job *models.UploadJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal upload job: %w", err)
	}

	if err := s.client.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save upload job: %w", err)
	}
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, id string) (*models.UploadJob, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load upload job: %w", err)
	}

	var job models.UploadJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload job: %w", err)
	}
	return &job, nil
}
