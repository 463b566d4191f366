package models

import (
	"fmt"
	"math"
)

// MaxPageSize bounds the page size of search requests.
const MaxPageSize = 100

// MaxPageIndex keeps Index*Size well inside int64, the range of a SQL OFFSET.
const MaxPageIndex = math.MaxInt32

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Index int
	Size  int
}

// Validate enforces 0 <= Index <= MaxPageIndex and 0 < Size <= MaxPageSize.
func (p PageRequest) Validate() error {
	if p.Index < 0 || p.Index > MaxPageIndex {
		return fmt.Errorf("pageIndex must be between 0 and %d, got %d", MaxPageIndex, p.Index)
	}
	if p.Size <= 0 || p.Size > MaxPageSize {
		return fmt.Errorf("pageSize must be between 1 and %d, got %d", MaxPageSize, p.Size)
	}
	return nil
}

// Offset is the number of rows preceding the page.
func (p PageRequest) Offset() int { return p.Index * p.Size }

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items         []T
	Index         int
	Size          int
	TotalElements int64
}

// TotalPages is the number of pages needed for TotalElements at this page size.
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// Paginate cuts the requested page out of an already ordered slice.
func Paginate[T any](all []T, req PageRequest) Page[T] {
	page := Page[T]{Items: []T{}, Index: req.Index, Size: req.Size, TotalElements: int64(len(all))}
	start := req.Offset()
	if start < 0 || start >= len(all) {
		return page
	}
	end := min(start+req.Size, len(all))
	page.Items = append(page.Items, all[start:end]...)
	return page
}

// MapPage converts the items of a page, keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{Items: make([]U, 0, len(p.Items)), Index: p.Index, Size: p.Size, TotalElements: p.TotalElements}
	for _, item := range p.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
