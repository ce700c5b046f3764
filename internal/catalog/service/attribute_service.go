package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iTakecare/leazr.co-sub004/internal/catalog/entity"
	"github.com/iTakecare/leazr.co-sub004/internal/shared/apperr"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const attributeCacheKey = "catalog:attributes"

// AttributeService 属性目录（自动补全），redis 缓存
type AttributeService struct {
	repo   AttributeStore
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewAttributeService(repo AttributeStore, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *AttributeService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttributeService{repo: repo, rdb: rdb, ttl: ttl, logger: logger}
}

// CreateAttributeInput 创建属性
type CreateAttributeInput struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"display_name"`
}

// List returns the attribute catalog, served from redis when cached.
func (s *AttributeService) List(ctx context.Context) ([]entity.Attribute, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, attributeCacheKey).Bytes(); err == nil {
			var attrs []entity.Attribute
			if json.Unmarshal(cached, &attrs) == nil {
				return attrs, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("Attribute cache read failed", zap.Error(err))
		}
	}

	attrs, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Remote("list attributes", err)
	}

	if s.rdb != nil {
		if data, err := json.Marshal(attrs); err == nil {
			if err := s.rdb.Set(ctx, attributeCacheKey, data, s.ttl).Err(); err != nil {
				s.logger.Warn("Attribute cache write failed", zap.Error(err))
			}
		}
	}
	return attrs, nil
}

func (s *AttributeService) Create(ctx context.Context, input *CreateAttributeInput) (*entity.Attribute, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid(apperr.ErrInvalidAttributeSet, "attribute name is empty")
	}
	display := strings.TrimSpace(input.DisplayName)
	if display == "" {
		display = name
	}
	attr := &entity.Attribute{
		ID:          uuid.New().String()[:32],
		Name:        name,
		DisplayName: display,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, attr); err != nil {
		return nil, apperr.Remote("create attribute", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, attributeCacheKey).Err(); err != nil {
			s.logger.Warn("Attribute cache invalidation failed", zap.Error(err))
		}
	}
	return attr, nil
}
