// Package service holds the blog's business rules between HTTP handlers and repositories.
package service

import (
	"strconv"
	"strings"
)

// DefaultPageSize is how many posts or comments one page holds.
const DefaultPageSize = 7

// Page is a clamped position in a paged listing.
type Page struct {
	Page       int
	Offset     int
	Limit      int
	TotalPages int
}

// Paginate clamps a client-supplied page number against total items. Anything
// that is not a positive integer means page 1; pages past the end mean the last
// page. There is always at least one page.
func Paginate(requested string, total int64, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalPages := 1
	if total > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	page, err := strconv.Atoi(strings.TrimSpace(requested))
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Page{
		Page:       page,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
		TotalPages: totalPages,
	}
}
