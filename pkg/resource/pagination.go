package resource

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Pagination defaults.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// maxPageNumber bounds offsets so they fit a 32-bit int.
	maxPageNumber = math.MaxInt32
)

// NextPagePolicy decides when a list response carries a next_page cursor.
type NextPagePolicy string

const (
	// NextPageLookahead fetches one extra row and emits a cursor only when it exists.
	NextPageLookahead NextPagePolicy = "lookahead"
	// NextPageFullPage emits a cursor whenever the page came back full. It reports a
	// spurious next page when the total is an exact multiple of the page size.
	NextPageFullPage NextPagePolicy = "full_page"
)

// ParseNextPagePolicy parses a policy name. An empty string selects lookahead.
func ParseNextPagePolicy(s string) (NextPagePolicy, error) {
	switch NextPagePolicy(s) {
	case "", NextPageLookahead:
		return NextPageLookahead, nil
	case NextPageFullPage:
		return NextPageFullPage, nil
	default:
		return "", fmt.Errorf("unknown next page policy %q", s)
	}
}

// Page is a normalized page request.
type Page struct {
	Number int
	Size   int
}

// Pagination is the metadata block of a list response.
type Pagination struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	NextPage *string `json:"next_page"`
}

// NormalizePage parses raw query values. Empty values take the defaults,
// non-numeric values are a validation error, page clamps to at least 1 and
// page size clamps into [1, maxSize].
func NormalizePage(rawPage, rawPageSize string, defaultSize, maxSize int) (Page, error) {
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if defaultSize < 1 || defaultSize > maxSize {
		defaultSize = min(DefaultPageSize, maxSize)
	}

	p := Page{Number: 1, Size: defaultSize}

	if rawPage != "" {
		n, err := parsePageParam(rawPage)
		if err != nil {
			return Page{}, &ValidationError{Field: "page", Message: "Invalid pagination parameters"}
		}
		p.Number = n
	}
	if rawPageSize != "" {
		n, err := parsePageParam(rawPageSize)
		if err != nil {
			return Page{}, &ValidationError{Field: "page_size", Message: "Invalid pagination parameters"}
		}
		p.Size = n
	}

	p.Size = min(max(p.Size, 1), maxSize)
	p.Number = min(max(p.Number, 1), (maxPageNumber-1)/p.Size)
	return p, nil
}

// parsePageParam parses an integer. Out of range values saturate so the
// caller's clamp applies to them.
func parsePageParam(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Cursor renders the query string of the following page.
func (p Page) Cursor() *string {
	s := fmt.Sprintf("?page=%d&page_size=%d", p.Number+1, p.Size)
	return &s
}

// Next applies the full-page heuristic: a cursor iff returned equals the page size.
func (p Page) Next(returned int) *string {
	if returned == p.Size {
		return p.Cursor()
	}
	return nil
}

// Meta builds the pagination block. more reports whether a row beyond this page
// exists and is only consulted by the lookahead policy.
func (p Page) Meta(policy NextPagePolicy, returned int, more bool) Pagination {
	meta := Pagination{Page: p.Number, PageSize: p.Size}
	switch policy {
	case NextPageFullPage:
		meta.NextPage = p.Next(returned)
	default:
		if more {
			meta.NextPage = p.Cursor()
		}
	}
	return meta
}
