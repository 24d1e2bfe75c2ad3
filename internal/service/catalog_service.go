package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const (
	catalogCacheKey     = "catalog:course-types"
	catalogCachePattern = "catalog:*"
)

type courseTypeSource interface {
	ListActiveCourseTypes(ctx context.Context) ([]models.CourseTypeRecord, error)
}

// CatalogService loads active course types and resolves catalog keys against them.
type CatalogService struct {
	source courseTypeSource
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService constructs a catalog service. cache may be nil.
func NewCatalogService(source courseTypeSource, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{source: source, cache: cache, ttl: ttl, logger: logger}
}

// CourseTypes returns the active course types, from cache when possible.
func (s *CatalogService) CourseTypes(ctx context.Context) ([]models.CourseTypeRecord, error) {
	var cached []models.CourseTypeRecord
	if s.cache.Get(ctx, catalogCacheKey, &cached) {
		return cached, nil
	}

	types, err := s.source.ListActiveCourseTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, "course types could not be loaded")
	}
	s.cache.Set(ctx, catalogCacheKey, types, s.ttl)
	return types, nil
}

// Resolve maps a catalog key to a course type, or nil when nothing matches.
func (s *CatalogService) Resolve(ctx context.Context, catalogKey string) (*models.CourseTypeRecord, error) {
	types, err := s.CourseTypes(ctx)
	if err != nil {
		return nil, err
	}
	resolved := ResolveCourseType(catalogKey, types)
	if resolved == nil {
		s.logger.Debug("catalog key unresolved", zap.String("catalog_key", catalogKey), zap.Int("candidates", len(types)))
	}
	return resolved, nil
}

// Invalidate drops cached catalog entries.
func (s *CatalogService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, catalogCachePattern)
}
