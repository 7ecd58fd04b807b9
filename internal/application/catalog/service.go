package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/infrastructure/cache"

	"gorm.io/gorm"
)

// PopularLimit is how many categories the browse page highlights.
const PopularLimit = 8

// CacheTTL bounds how long registry rows edited outside this service stay
// invisible. Submissions invalidate immediately.
const CacheTTL = 30 * time.Second

const (
	keyAllCategories    = "categories:all"
	keyActiveCategories = "categories:active"
	keyPopular          = "categories:popular"
	keyActiveProperties = "properties:active"
)

// Service serves the reference registries (categories, properties). Reads go
// through the Redis cache when one is configured.
type Service struct {
	DB    *gorm.DB
	Cache *cache.Client
}

// Categories returns every category in insertion order.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return cache.Remember(ctx, s.Cache, keyAllCategories, CacheTTL, func(ctx context.Context) ([]domain.Category, error) {
		var out []domain.Category
		if err := s.DB.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
			return nil, fmt.Errorf("fetch categories: %w", err)
		}
		return out, nil
	})
}

// ActiveCategories returns categories with status=true.
func (s *Service) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	return cache.Remember(ctx, s.Cache, keyActiveCategories, CacheTTL, func(ctx context.Context) ([]domain.Category, error) {
		var out []domain.Category
		if err := s.DB.WithContext(ctx).Where("status = ?", true).Order("id ASC").Find(&out).Error; err != nil {
			return nil, fmt.Errorf("fetch active categories: %w", err)
		}
		return out, nil
	})
}

// PopularCategories returns the PopularLimit categories with the most listings.
func (s *Service) PopularCategories(ctx context.Context) ([]domain.Category, error) {
	return cache.Remember(ctx, s.Cache, keyPopular, CacheTTL, func(ctx context.Context) ([]domain.Category, error) {
		var out []domain.Category
		err := s.DB.WithContext(ctx).
			Order("business_count DESC").Order("id ASC").
			Limit(PopularLimit).
			Find(&out).Error
		if err != nil {
			return nil, fmt.Errorf("fetch popular categories: %w", err)
		}
		return out, nil
	})
}

// ActiveProperties returns properties with status=true.
func (s *Service) ActiveProperties(ctx context.Context) ([]domain.Property, error) {
	return cache.Remember(ctx, s.Cache, keyActiveProperties, CacheTTL, func(ctx context.Context) ([]domain.Property, error) {
		var out []domain.Property
		if err := s.DB.WithContext(ctx).Where("status = ?", true).Order("id ASC").Find(&out).Error; err != nil {
			return nil, fmt.Errorf("fetch active properties: %w", err)
		}
		return out, nil
	})
}

// CategoryExists reports whether a category row with id exists.
func (s *Service) CategoryExists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, s.DB, &domain.Category{}, id)
}

// PropertyExists reports whether a property row with id exists.
func (s *Service) PropertyExists(ctx context.Context, id uint) (bool, error) {
	return exists(ctx, s.DB, &domain.Property{}, id)
}

func exists(ctx context.Context, db *gorm.DB, model interface{}, id uint) (bool, error) {
	err := db.WithContext(ctx).Select("id").Where("id = ?", id).Take(model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate drops the cached registries; call after listing counts change.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.Cache.Del(ctx, keyAllCategories, keyActiveCategories, keyPopular, keyActiveProperties)
}
