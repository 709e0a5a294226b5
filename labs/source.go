/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "context"

// AllFilter is the filter value that disables status/type filtering.
const AllFilter = "All"

// UnknownTotal marks a batch whose source does not report a total count.
const UnknownTotal = -1

// FilterOption is one selectable status or type.
type FilterOption struct {
	ID    string
	Title string
	// Count is the number of matching documents, when the source knows it.
	Count int
}

// SortOption is one sortable field.
type SortOption struct {
	Field string
	Title string
}

// DateRange bounds the date field of a query. Both ends are formatted bounds.
type DateRange struct {
	Start string
	End   string
}

// Query is one remote list request.
type Query struct {
	Limit   int
	Offset  int
	OrderBy string
	// Filter is a status or type id; empty or AllFilter means unfiltered.
	Filter    string
	DateRange *DateRange
}

func (q Query) filtered() bool {
	return q.Filter != "" && q.Filter != AllFilter
}

// Batch is one page of normalized labs.
type Batch struct {
	Labs []Lab
	// Total is the number of matching documents, or UnknownTotal.
	Total int
}

// LabSource is a flavour of the remote lab API.
type LabSource interface {
	// FilterParam is the query parameter carrying the status or type filter.
	FilterParam() string
	// FilterLabel names the classification in the UI, e.g. "Status".
	FilterLabel() string
	// DateField is the field date ranges and the oldest-record lookup use.
	DateField() string
	SortOptions() []SortOption
	FilterOptions(ctx context.Context, access AccessToken) ([]FilterOption, error)
	Fetch(ctx context.Context, access AccessToken, q Query) (Batch, error)
}

func dateRangeParam(field string, r *DateRange) string {
	return field + "*" + r.Start + "*" + r.End
}
