package instrument

import (
	"errors"
	"fmt"
)

// ErrInvalidPagination rejects negative limit or offset values. Negative
// windows are a caller bug; clamping them silently would hide it.
var ErrInvalidPagination = errors.New("pagination limit and offset must be non-negative")

// Page is one window over a larger list.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// Paginate returns the [offset, offset+limit) window of items, clipped to
// the list bounds. HasMore reports whether entries remain past the window;
// with limit zero the page is always empty and HasMore reports whether
// anything sits at or past the offset.
func Paginate[T any](items []T, limit, offset int) (Page[T], error) {
	if limit < 0 || offset < 0 {
		return Page[T]{}, fmt.Errorf("%w (limit=%d, offset=%d)", ErrInvalidPagination, limit, offset)
	}

	total := len(items)
	page := Page[T]{
		Items:   []T{},
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page.Items = items[offset:end]
	}
	return page, nil
}
