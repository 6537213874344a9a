package models

import (
	"context"

	"gorm.io/gorm"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// Pagination describes one page of an offset-paginated listing.
type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// NormalizePageParams clamps raw query params into safe bounds.
// Page defaults to 1, perPage to 10 and is capped at 100.
func NormalizePageParams(page int, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// FetchPage runs a count + offset query over the given (already filtered)
// query builder and returns the rows with their page envelope.
func FetchPage[T any](ctx context.Context, query *gorm.DB, page int, perPage int) ([]*T, *Pagination, error) {
	page, perPage = NormalizePageParams(page, perPage)

	// New session per statement so the count does not leak clauses into the fetch.
	var model T
	var total int64
	if err := query.Session(&gorm.Session{}).WithContext(ctx).Model(&model).Count(&total).Error; err != nil {
		return nil, nil, err
	}

	var rows []*T
	offset := (page - 1) * perPage
	if err := query.Session(&gorm.Session{}).WithContext(ctx).Offset(offset).Limit(perPage).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return rows, &Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}, nil
}
