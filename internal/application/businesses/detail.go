package businesses

import (
	"context"
	"errors"
	"fmt"

	"bizmart-backend/internal/domain"

	"gorm.io/gorm"
)

// Form is the data the listing creation form needs.
type Form struct {
	Categories       []domain.Category `json:"categories"`
	Properties       []domain.Property `json:"properties"`
	TransactionTypes map[string]string `json:"transaction_types"`
}

// ShowForm returns the active registries and the transaction type choices.
func (s *Service) ShowForm(ctx context.Context) (*Form, error) {
	categories, err := s.Catalog.ActiveCategories(ctx)
	if err != nil {
		return nil, err
	}
	properties, err := s.Catalog.ActiveProperties(ctx)
	if err != nil {
		return nil, err
	}
	return &Form{
		Categories:       categories,
		Properties:       properties,
		TransactionTypes: domain.TransactionTypesObject(),
	}, nil
}

// Detail is the data of a listing page. Business is nil when no listing has
// the requested id.
type Detail struct {
	User       *domain.Viewer    `json:"user"`
	Business   *domain.Business  `json:"business"`
	Bookmarks  []domain.Business `json:"bookmarks"`
	IsLoggedIn bool              `json:"isLoggedIn"`
}

// Business loads one listing by its public id together with the viewer's
// bookmarks. Moderation state is not checked.
func (s *Service) Business(ctx context.Context, listingID string, viewer *domain.Viewer) (*Detail, error) {
	out := &Detail{User: viewer, Bookmarks: []domain.Business{}, IsLoggedIn: viewer != nil}

	var b domain.Business
	err := s.DB.WithContext(ctx).
		Preload("Images").
		Preload("Category").
		Preload("Watchers").
		Preload("Owner").
		Where("listing_id = ?", listingID).
		First(&b).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, fmt.Errorf("load business %q: %w", listingID, err)
	default:
		out.Business = &b
	}

	if viewer != nil {
		err := s.DB.WithContext(ctx).
			Model(&domain.User{ID: viewer.UserID}).
			Association("Bookmarks").
			Find(&out.Bookmarks)
		if err != nil {
			return nil, fmt.Errorf("load bookmarks: %w", err)
		}
	}
	return out, nil
}
