package businesses

import (
	"fmt"

	"gorm.io/gorm"
)

// Page is one page of a paginated result.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// paginate runs query twice: once for the total, once for the requested page.
// query must return a fresh chain on every call. preloads apply to the page only.
func paginate[T any](query func() *gorm.DB, page, perPage int, preloads ...string) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	out := Page[T]{Data: []T{}, CurrentPage: page, PerPage: perPage, LastPage: 1}

	if err := query().Count(&out.Total).Error; err != nil {
		return out, fmt.Errorf("count: %w", err)
	}
	if out.Total == 0 {
		return out, nil
	}
	out.LastPage = int((out.Total + int64(perPage) - 1) / int64(perPage))

	offset := (page - 1) * perPage
	tx := query()
	for _, rel := range preloads {
		tx = tx.Preload(rel)
	}
	if err := tx.Order("id ASC").Offset(offset).Limit(perPage).Find(&out.Data).Error; err != nil {
		return out, fmt.Errorf("fetch page: %w", err)
	}
	if n := len(out.Data); n > 0 {
		from, to := offset+1, offset+n
		out.From, out.To = &from, &to
	}
	return out, nil
}
