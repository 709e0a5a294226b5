// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package labs

import "testing"

func TestIsAbnormal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		value          string
		low            string
		high           string
		interpretation string
		want           bool
	}{
		{name: "inside range", value: "5", low: "1", high: "10", want: false},
		{name: "on lower bound", value: "1", low: "1", high: "10", want: false},
		{name: "on upper bound", value: "10", low: "1", high: "10", want: false},
		{name: "below range", value: "0.5", low: "1", high: "10", want: true},
		{name: "above range", value: "10.1", low: "1", high: "10", want: true},
		{name: "inverted range ignored", value: "50", low: "10", high: "1", want: false},
		{name: "inverted range with interpretation", value: "50", low: "10", high: "1", interpretation: "high", want: true},
		{name: "non numeric value", value: "positive", low: "1", high: "10", want: false},
		{name: "missing bound", value: "50", low: "", high: "10", want: false},
		{name: "abnormal interpretation", value: "5", low: "1", high: "10", interpretation: "high", want: true},
		{name: "normal interpretation", value: "5", low: "1", high: "10", interpretation: "normal", want: false},
		{name: "interpretation is case sensitive", value: "5", low: "1", high: "10", interpretation: "Normal", want: true},
		{name: "interpretation without numbers", value: "positive", interpretation: "abnormal", want: true},
		{name: "interpretation without range", value: "x", interpretation: "critical", want: true},
		{name: "padded numbers", value: " 12 ", low: " 1", high: "10 ", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsAbnormal(tt.value, tt.low, tt.high, tt.interpretation); got != tt.want {
				t.Fatalf("IsAbnormal(%q, %q, %q, %q) = %v, want %v",
					tt.value, tt.low, tt.high, tt.interpretation, got, tt.want)
			}
		})
	}
}

func TestLabFinishDefaults(t *testing.T) {
	t.Parallel()

	lab := Lab{Value: "3", NormalMin: "1", NormalMax: "2"}
	lab.finish("")

	if !lab.DateParseError || lab.Collected() != ParseErrorSentinel {
		t.Fatalf("expected parse error sentinel, got %q", lab.Collected())
	}
	if lab.Org != NotSupplied || lab.Address != NotSupplied {
		t.Fatalf("expected defaults for org and address, got %q / %q", lab.Org, lab.Address)
	}
	if !lab.Abnormal {
		t.Fatal("expected abnormal flag for out of range value")
	}
}

func TestLabCollected(t *testing.T) {
	t.Parallel()

	lab := Lab{}
	lab.finish("2024-03-05T10:30:00Z")

	if lab.DateParseError {
		t.Fatal("unexpected parse error")
	}
	if got := lab.Collected(); got != "2024-03-05 10:30 UTC" {
		t.Fatalf("unexpected collected date %q", got)
	}
}

func TestLabNormalRange(t *testing.T) {
	t.Parallel()

	if got := (Lab{}).NormalRange(); got != "" {
		t.Fatalf("expected empty range, got %q", got)
	}
	if got := (Lab{NormalMin: "1", NormalMax: "2"}).NormalRange(); got != "1 - 2" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestJoinAddress(t *testing.T) {
	t.Parallel()

	if got := joinAddress("1 Main St", " ", "Boston", "", "US"); got != "1 Main St, Boston, US" {
		t.Fatalf("unexpected address %q", got)
	}
}
