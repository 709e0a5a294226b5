/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "fmt"

const (
	DefaultLimit = 15
	MaxLimit     = 100
)

// Pagination describes where a page sits in the result set.
type Pagination struct {
	RangeDescription string
	HasNext          bool
	NextOffset       int
	HasPrev          bool
	PrevOffset       int
}

// Paginate computes the descriptors for a page of count results fetched at
// offset. When total is UnknownTotal a full page is taken to mean more
// results may follow.
func Paginate(limit, offset, count, total int) Pagination {
	var p Pagination

	switch {
	case count == 0 && offset == 0:
		p.RangeDescription = "No Results"
	case count == 0:
		p.RangeDescription = "End of Results"
	default:
		p.RangeDescription = fmt.Sprintf("Showing Results %d-%d", offset+1, offset+count)
		if total >= 0 {
			p.RangeDescription += fmt.Sprintf(" of %d", total)
			p.HasNext = offset+limit < total
		} else {
			p.HasNext = count == limit
		}
		if p.HasNext {
			p.NextOffset = offset + limit
		}
	}

	if offset > 0 {
		p.HasPrev = true
		p.PrevOffset = offset - limit
		if p.PrevOffset < 0 {
			p.PrevOffset = 0
		}
	}

	return p
}
