/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// boundLayout formats date range bounds sent to the API and kept in the session.
const boundLayout = "2006-01-02T15:04:05Z"

// Params are the raw listing request parameters.
type Params struct {
	Limit     int
	Offset    int
	OrderBy   string
	Filter    string
	DateStart string
	DateEnd   string
}

// Page is everything the listing template renders.
type Page struct {
	Labs  []Lab
	Count int
	Total int

	Limit   int
	Offset  int
	OrderBy string

	SortOptions []SortOption

	FilterParam   string
	FilterLabel   string
	Filter        string
	FilterDisplay string
	FilterOptions []FilterOption

	MinDate   string
	MaxDate   string
	DateStart string
	DateEnd   string

	Pagination
}

// URL returns the listing link for another offset with the current filters.
func (p Page) URL(offset int) string {
	return p.link(p.OrderBy, offset)
}

// SortURL returns the listing link sorted by field, starting from the first page.
func (p Page) SortURL(field string) string {
	return p.link(field, 0)
}

func (p Page) link(orderBy string, offset int) string {
	q := url.Values{
		"limit":      {strconv.Itoa(p.Limit)},
		"offset":     {strconv.Itoa(offset)},
		"order_by":   {orderBy},
		"date_start": {p.DateStart},
		"date_end":   {p.DateEnd},
	}
	q.Set(p.FilterParam, p.Filter)
	return "/labs?" + q.Encode()
}

// Listing serves paginated, filtered lab lists for a record.
type Listing struct {
	Source LabSource
	// Now is the clock used for the default end bound.
	Now func() time.Time
}

// NewListing returns a listing controller over the source.
func NewListing(source LabSource) *Listing {
	return &Listing{Source: source, Now: time.Now}
}

// ParseParams reads the listing parameters from a query string, applying the
// numeric defaults. Unknown sort fields and filters are resolved by List.
func (l *Listing) ParseParams(q url.Values) Params {
	p := Params{
		Limit:     DefaultLimit,
		OrderBy:   strings.TrimSpace(q.Get("order_by")),
		Filter:    strings.TrimSpace(q.Get(l.Source.FilterParam())),
		DateStart: strings.TrimSpace(q.Get("date_start")),
		DateEnd:   strings.TrimSpace(q.Get("date_end")),
	}

	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n >= 1 {
		p.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n >= 0 {
		p.Offset = n
	}

	return p
}

// List fetches one page of labs for the session's record.
func (l *Listing) List(ctx context.Context, s Session, p Params) (Page, error) {
	access, err := recordAccess(s)
	if err != nil {
		return Page{}, err
	}

	src := l.Source
	page := Page{
		Limit:       clampLimit(p.Limit),
		Offset:      p.Offset,
		OrderBy:     src.DateField(),
		SortOptions: src.SortOptions(),
		FilterParam: src.FilterParam(),
		FilterLabel: src.FilterLabel(),
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	for _, opt := range page.SortOptions {
		if opt.Field == p.OrderBy {
			page.OrderBy = opt.Field
			break
		}
	}

	page.FilterOptions, err = src.FilterOptions(ctx, access)
	if err != nil {
		return Page{}, fmt.Errorf("failed to load %s values: %w", strings.ToLower(page.FilterLabel), err)
	}
	page.Filter, page.FilterDisplay = resolveFilter(page.FilterOptions, p.Filter)

	now := l.now().UTC()
	oldest, err := l.oldest(ctx, access, page.Filter, now)
	if err != nil {
		return Page{}, err
	}

	page.MinDate = time.Date(oldest.Year(), oldest.Month(), oldest.Day(), 0, 0, 0, 0, time.UTC).Format(boundLayout)
	page.MaxDate = now.Format(boundLayout)
	page.DateStart = normalizeBound(p.DateStart, page.MinDate)
	page.DateEnd = normalizeBound(p.DateEnd, page.MaxDate)

	prevStart, _ := s.Get(KeyDateStart).(string)
	prevEnd, _ := s.Get(KeyDateEnd).(string)
	if prevStart != page.DateStart || prevEnd != page.DateEnd {
		page.Offset = 0
	}
	s.Set(KeyDateStart, page.DateStart)
	s.Set(KeyDateEnd, page.DateEnd)

	batch, err := src.Fetch(ctx, access, Query{
		Limit:     page.Limit,
		Offset:    page.Offset,
		OrderBy:   page.OrderBy,
		Filter:    page.Filter,
		DateRange: &DateRange{Start: page.DateStart, End: page.DateEnd},
	})
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch labs: %w", err)
	}

	page.Labs = batch.Labs
	page.Count = len(batch.Labs)
	page.Total = batch.Total
	page.Pagination = Paginate(page.Limit, page.Offset, page.Count, batch.Total)

	return page, nil
}

// oldest returns the date of the earliest lab matching the filter, or now
// when there are none.
func (l *Listing) oldest(ctx context.Context, access AccessToken, filter string, now time.Time) (time.Time, error) {
	src := l.Source
	batch, err := src.Fetch(ctx, access, Query{
		Limit:   1,
		OrderBy: src.DateField(),
		Filter:  filter,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch oldest lab: %w", err)
	}

	if len(batch.Labs) == 0 || batch.Labs[0].DateParseError {
		return now, nil
	}
	return batch.Labs[0].CollectedAt, nil
}

func (l *Listing) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

func resolveFilter(options []FilterOption, requested string) (string, string) {
	for _, opt := range options {
		if opt.ID == requested {
			return opt.ID, opt.Title
		}
	}
	return AllFilter, AllFilter
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// normalizeBound formats an explicit bound, falling back to def when the
// bound is absent or unparseable.
func normalizeBound(raw, def string) string {
	if raw == "" {
		return def
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		logger.Debug("Ignoring unparseable date bound", "value", raw, "error", err)
		return def
	}
	return t.UTC().Format(boundLayout)
}
