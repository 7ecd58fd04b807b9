package businesses

import (
	"context"
	"fmt"
	"strings"

	"bizmart-backend/internal/domain"

	"gorm.io/gorm"
)

// Criteria narrows the visible listing set.
type Criteria struct {
	Search          string
	CategoryID      *uint
	TransactionType domain.TransactionType
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Filter is a gorm scope restricting to visible listings matching c.
// The zero TransactionType matches every type.
func Filter(c Criteria) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.
			Where("status = ?", domain.StatusApproved).
			Where("business_status = ?", domain.Unsold).
			Where("business_state = ?", true)
		if c.Search != "" {
			db = db.Where(`business_name LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(c.Search)+"%")
		}
		if c.CategoryID != nil {
			db = db.Where("category_id = ?", *c.CategoryID)
		}
		if c.TransactionType.Valid() {
			db = db.Where("transaction_type = ?", c.TransactionType)
		}
		return db
	}
}

// Groups holds one page of visible listings per transaction type.
type Groups struct {
	Auction    Page[domain.Business] `json:"auction"`
	Sale       Page[domain.Business] `json:"sale"`
	Investment Page[domain.Business] `json:"investment"`
	Lease      Page[domain.Business] `json:"lease"`
}

func (g *Groups) slot(t domain.TransactionType) *Page[domain.Business] {
	switch t {
	case domain.Auction:
		return &g.Auction
	case domain.Sale:
		return &g.Sale
	case domain.Investment:
		return &g.Investment
	default:
		return &g.Lease
	}
}

func (s *Service) groups(ctx context.Context, base Criteria, page int) (*Groups, error) {
	g := &Groups{}
	for _, t := range domain.TransactionTypes() {
		c := base
		c.TransactionType = t
		p, err := paginate[domain.Business](func() *gorm.DB {
			return s.DB.WithContext(ctx).
				Model(&domain.Business{}).
				Scopes(Filter(c))
		}, page, s.pageSize(), "Images", "Category")
		if err != nil {
			return nil, fmt.Errorf("%s listings: %w", t, err)
		}
		*g.slot(t) = p
	}
	return g, nil
}

// Browse is the data of the browse page.
type Browse struct {
	Groups
	Categories        []domain.Category `json:"categories"`
	PopularCategories []domain.Category `json:"popularCategories"`
}

// BrowseAll returns every visible listing grouped by transaction type.
func (s *Service) BrowseAll(ctx context.Context, page int) (*Browse, error) {
	g, err := s.groups(ctx, Criteria{}, page)
	if err != nil {
		return nil, err
	}
	categories, err := s.Catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.Catalog.PopularCategories(ctx)
	if err != nil {
		return nil, err
	}
	return &Browse{Groups: *g, Categories: categories, PopularCategories: popular}, nil
}

// SearchInput is the query of the search page.
type SearchInput struct {
	Search                string
	CategoryID            *uint
	ActiveTransactionType string
	Page                  int
}

// SearchResult is the data of the search page.
type SearchResult struct {
	Groups
	Search                string            `json:"search"`
	ActiveTransactionType string            `json:"activeTransactionType"`
	Categories            []domain.Category `json:"categories"`
}

// Search filters visible listings by name substring and category.
// ActiveTransactionType is echoed for the view and does not filter.
func (s *Service) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	g, err := s.groups(ctx, Criteria{Search: in.Search, CategoryID: in.CategoryID}, in.Page)
	if err != nil {
		return nil, err
	}
	categories, err := s.Catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &SearchResult{
		Groups:                *g,
		Search:                in.Search,
		ActiveTransactionType: in.ActiveTransactionType,
		Categories:            categories,
	}, nil
}
