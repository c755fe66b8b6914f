package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IQueryCacheService caches full answers per project and question. Any
// document change in a project invalidates all of its cached answers, since
// the answerable corpus just changed.
type IQueryCacheService interface {
	Get(ctx context.Context, projectId uuid.UUID, question string) (*dto.SendChatResponse, bool)
	Set(ctx context.Context, projectId uuid.UUID, question string, response *dto.SendChatResponse)
	InvalidateProject(ctx context.Context, projectId uuid.UUID)
}

type queryCacheService struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewQueryCacheService(rdb *redis.Client, ttl time.Duration, log logger.ILogger) IQueryCacheService {
	return &queryCacheService{
		rdb:    rdb,
		ttl:    ttl,
		logger: log,
	}
}

func (s *queryCacheService) key(projectId uuid.UUID, question string) string {
	return fmt.Sprintf("rag_cache:%s:%x", projectId, sha256.Sum256([]byte(question)))
}

func (s *queryCacheService) Get(ctx context.Context, projectId uuid.UUID, question string) (*dto.SendChatResponse, bool) {
	if s.rdb == nil {
		return nil, false
	}

	raw, err := s.rdb.Get(ctx, s.key(projectId, question)).Bytes()
	if err != nil {
		return nil, false
	}

	var cached dto.SendChatResponse
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	cached.Cached = true
	return &cached, true
}

func (s *queryCacheService) Set(ctx context.Context, projectId uuid.UUID, question string, response *dto.SendChatResponse) {
	if s.rdb == nil {
		return
	}

	raw, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.key(projectId, question), raw, s.ttl).Err(); err != nil {
		s.logger.Warn("QueryCache", "Failed to cache answer", map[string]interface{}{"error": err.Error()})
	}
}

func (s *queryCacheService) InvalidateProject(ctx context.Context, projectId uuid.UUID) {
	if s.rdb == nil {
		return
	}

	pattern := fmt.Sprintf("rag_cache:%s:*", projectId)
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn("QueryCache", "Failed to delete cache key", map[string]interface{}{"key": iter.Val(), "error": err.Error()})
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("QueryCache", "Cache invalidation scan failed", map[string]interface{}{"error": err.Error()})
	}
}
