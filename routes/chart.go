/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	htmltemplate "html/template"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/indivolabs/labs"
)

// maxCharts bounds how many trends the list page draws.
const maxCharts = 6

// LabChart is one rendered value trend.
type LabChart struct {
	TestName string
	HTML     htmltemplate.HTML
}

type chartPoint struct {
	at    time.Time
	value float64
}

type chartSeries struct {
	unit   string
	low    string
	high   string
	points []chartPoint
}

// chartText drops angle brackets from remote text before it is embedded in
// the chart script, which go-echarts emits without HTML escaping.
var chartText = strings.NewReplacer("<", "", ">", "")

// labCharts draws a trend per test that has at least two dated numeric
// results on the page.
func labCharts(list []labs.Lab) []LabChart {
	series := make(map[string]*chartSeries)

	for _, lab := range list {
		value, ok := lab.NumericValue()
		if !ok || lab.DateParseError || lab.TestName == "" {
			continue
		}

		s, seen := series[lab.TestName]
		if !seen {
			s = &chartSeries{unit: lab.Unit, low: lab.NormalMin, high: lab.NormalMax}
			series[lab.TestName] = s
		}
		s.points = append(s.points, chartPoint{at: lab.CollectedAt, value: value})
	}

	names := make([]string, 0, len(series))
	for name, s := range series {
		if len(s.points) >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > maxCharts {
		names = names[:maxCharts]
	}

	result := make([]LabChart, 0, len(names))
	for _, name := range names {
		rendered, err := renderLabChart(name, series[name])
		if err != nil {
			logger.Warn("Failed to render lab chart", "test_name", name, "error", err)
			continue
		}
		result = append(result, LabChart{TestName: name, HTML: rendered})
	}

	return result
}

func renderLabChart(testName string, s *chartSeries) (htmltemplate.HTML, error) {
	testName = chartText.Replace(testName)
	unit := chartText.Replace(s.unit)

	sort.Slice(s.points, func(i, j int) bool {
		return s.points[i].at.Before(s.points[j].at)
	})

	xAxis := make([]string, 0, len(s.points))
	yData := make([]opts.LineData, 0, len(s.points))
	for _, p := range s.points {
		xAxis = append(xAxis, p.at.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: p.value})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: testName,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: unit,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if marks := normalRangeMarks(s.low, s.high); len(marks) > 0 {
		seriesOpts = append(seriesOpts, func(ss *charts.SingleSeries) {
			ss.MarkLines = &opts.MarkLines{
				Data: marks,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(testName, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}

	return htmltemplate.HTML(buf.String()), nil //nolint:gosec // Markup is generated by go-echarts.
}

func normalRangeMarks(low, high string) []interface{} {
	var marks []interface{}

	if v, ok := labs.ParseNumber(low); ok {
		marks = append(marks, opts.MarkLineNameYAxisItem{Name: "Normal Min", YAxis: v})
	}
	if v, ok := labs.ParseNumber(high); ok {
		marks = append(marks, opts.MarkLineNameYAxisItem{Name: "Normal Max", YAxis: v})
	}

	return marks
}
