/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseErrorSentinel is displayed in place of a collection date that could not be parsed.
const ParseErrorSentinel = "parse error"

// NotSupplied is displayed for missing organization or address details.
const NotSupplied = "Not Supplied"

// Lab is the display form of one remote lab document.
type Lab struct {
	ID       string
	TestName string

	CollectedAt time.Time
	// DateParseError marks a record whose collection date was missing or unparseable.
	DateParseError bool

	// Classification is the raw status (JSON API) or type (XML API) identifier.
	Classification      string
	ClassificationTitle string

	Value          string
	Unit           string
	NormalMin      string
	NormalMax      string
	Interpretation string

	Org     string
	Address string

	Abnormal bool
}

// Collected returns the collection date for display.
func (l Lab) Collected() string {
	if l.DateParseError {
		return ParseErrorSentinel
	}
	return l.CollectedAt.Format("2006-01-02 15:04 MST")
}

// NumericValue returns the test value as a number when it parses as one.
func (l Lab) NumericValue() (float64, bool) {
	return ParseNumber(l.Value)
}

// NormalRange returns the range as "min - max", or an empty string.
func (l Lab) NormalRange() string {
	if l.NormalMin == "" && l.NormalMax == "" {
		return ""
	}
	return l.NormalMin + " - " + l.NormalMax
}

// IsAbnormal classifies a result. A value strictly outside [low, high] is
// abnormal when all three parse as numbers and low <= high. An inverted range
// leaves only the interpretation code, which is abnormal unless it is exactly
// "normal". Anything unparseable is treated as not abnormal.
func IsAbnormal(value, low, high, interpretation string) bool {
	if interpretation = strings.TrimSpace(interpretation); interpretation != "" && interpretation != "normal" {
		return true
	}

	v, okV := ParseNumber(value)
	lo, okLo := ParseNumber(low)
	hi, okHi := ParseNumber(high)
	if !okV || !okLo || !okHi || lo > hi {
		return false
	}

	return v < lo || v > hi
}

// finish fills the derived fields of a lab.
func (l *Lab) finish(rawDate string) {
	l.CollectedAt, l.DateParseError = parseCollected(rawDate)
	l.Abnormal = IsAbnormal(l.Value, l.NormalMin, l.NormalMax, l.Interpretation)

	l.Org = strings.TrimSpace(l.Org)
	if l.Org == "" {
		l.Org = NotSupplied
	}
	if strings.TrimSpace(l.Address) == "" {
		l.Address = NotSupplied
	}
}

func parseCollected(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		logger.Debug("Unparseable lab date", "value", raw, "error", err)
		return time.Time{}, true
	}

	return t.UTC(), false
}

// ParseNumber parses a lab value or range bound, ignoring surrounding space.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// joinAddress joins the non-empty address parts with ", ".
func joinAddress(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
