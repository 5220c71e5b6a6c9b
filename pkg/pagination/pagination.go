// Package pagination provides listing parameters shared by the API and
// the admin CLI.
package pagination

import "strings"

const (
	DefaultPerPage = 50
	MaxPerPage     = 200
)

// Page holds normalized pagination parameters.
type Page struct {
	Number  int
	PerPage int
}

// NewPage clamps raw page inputs into valid bounds.
func NewPage(number, perPage int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

// Limit returns the SQL LIMIT value.
func (p Page) Limit() int {
	return p.PerPage
}

// Offset returns the SQL OFFSET value.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Order is a sort direction.
type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Sort is one validated sort term.
type Sort struct {
	Column string
	Order  Order
}

// ParseSort parses "-created_at,kind" style sort strings against a
// whitelist mapping request fields to database columns. Unknown fields
// are dropped.
func ParseSort(raw string, allowed map[string]string) []Sort {
	var sorts []Sort
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		order := Asc
		field := strings.TrimPrefix(part, "+")
		if strings.HasPrefix(part, "-") {
			order = Desc
			field = part[1:]
		}
		if col, ok := allowed[field]; ok {
			sorts = append(sorts, Sort{Column: col, Order: order})
		}
	}
	return sorts
}
