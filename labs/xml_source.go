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
	"unicode"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/humaidq/indivolabs/indivo"
)

const (
	labsReport     = "labs"
	xmlDateField   = "date_measured"
	xmlTypeField   = "lab_type"
	xmlFilterParam = "lab_type"
)

// MinimalReporter is the remote call the XML source is built on.
type MinimalReporter interface {
	MinimalReport(ctx context.Context, access indivo.Token, recordID, report string, params url.Values) ([]byte, error)
}

// XMLSource reads the minimal labs report. It filters by lab type, takes the
// type enumeration from a group-by aggregate and reports a total count.
type XMLSource struct {
	client MinimalReporter
}

// NewXMLSource returns a source backed by the minimal labs report.
func NewXMLSource(client MinimalReporter) *XMLSource {
	return &XMLSource{client: client}
}

func (x *XMLSource) FilterParam() string { return xmlFilterParam }
func (x *XMLSource) FilterLabel() string { return "Type" }
func (x *XMLSource) DateField() string   { return xmlDateField }

func (x *XMLSource) SortOptions() []SortOption {
	return []SortOption{
		{Field: "date_measured", Title: "Date Measured"},
		{Field: "-date_measured", Title: "Date Measured (newest)"},
		{Field: "lab_type", Title: "Type"},
		{Field: "created_at", Title: "Date Added"},
	}
}

// FilterOptions runs the lab_type aggregate and returns one option per group.
func (x *XMLSource) FilterOptions(ctx context.Context, access AccessToken) ([]FilterOption, error) {
	params := url.Values{
		"group_by":     {xmlTypeField},
		"aggregate_by": {"count*" + xmlTypeField},
	}

	body, err := x.client.MinimalReport(ctx, access.OAuth(), access.RecordID, labsReport, params)
	if err != nil {
		return nil, err
	}

	return parseAggregate(body)
}

func (x *XMLSource) Fetch(ctx context.Context, access AccessToken, q Query) (Batch, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(q.Limit)},
		"offset": {strconv.Itoa(q.Offset)},
	}
	if q.OrderBy != "" {
		params.Set("order_by", q.OrderBy)
	}
	if q.filtered() {
		params.Set(xmlTypeField, q.Filter)
	}
	if q.DateRange != nil {
		params.Set("date_range", dateRangeParam(xmlDateField, q.DateRange))
	}

	body, err := x.client.MinimalReport(ctx, access.OAuth(), access.RecordID, labsReport, params)
	if err != nil {
		return Batch{}, err
	}

	return parseXMLReports(body)
}

func readXML(body []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedReport)
	}
	return root, nil
}

func parseAggregate(body []byte) ([]FilterOption, error) {
	root, err := readXML(body)
	if err != nil {
		return nil, err
	}

	var options []FilterOption
	for _, agg := range root.SelectElements("AggregateReport") {
		group := strings.TrimSpace(agg.SelectAttrValue("group", ""))
		if group == "" {
			continue
		}
		count, _ := strconv.Atoi(agg.SelectAttrValue("value", "0"))
		options = append(options, FilterOption{ID: group, Title: titleCase(group), Count: count})
	}
	return options, nil
}

func parseXMLReports(body []byte) (Batch, error) {
	root, err := readXML(body)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{Total: UnknownTotal}
	if summary := root.SelectElement("Summary"); summary != nil {
		if n, err := strconv.Atoi(summary.SelectAttrValue("total_document_count", "")); err == nil {
			batch.Total = n
		}
	}

	for _, report := range root.SelectElements("Report") {
		batch.Labs = append(batch.Labs, xmlLab(report))
	}
	return batch, nil
}

func xmlLab(report *etree.Element) Lab {
	lab := Lab{
		TestName:       findText(report, ".//labTest/name"),
		Classification: findText(report, ".//labType"),
		Value:          findText(report, ".//valueAndUnit/value"),
		Unit:           findText(report, ".//valueAndUnit/unit"),
		NormalMin:      findText(report, ".//normalRange/minimum"),
		NormalMax:      findText(report, ".//normalRange/maximum"),
		Interpretation: findText(report, ".//abnormalInterpretation"),
		Org:            findText(report, ".//laboratory/name"),
		Address: joinAddress(
			findText(report, ".//laboratory/address/streetAddress"),
			findText(report, ".//laboratory/address/locality"),
			findText(report, ".//laboratory/address/region"),
			findText(report, ".//laboratory/address/postalCode"),
			findText(report, ".//laboratory/address/country"),
		),
	}
	if doc := report.FindElement("Meta/Document"); doc != nil {
		lab.ID = doc.SelectAttrValue("id", "")
	}
	if lab.TestName == "" {
		lab.TestName = findText(report, ".//firstPanelName")
	}

	lab.ClassificationTitle = "Unknown"
	if lab.Classification != "" {
		lab.ClassificationTitle = titleCase(lab.Classification)
	}

	lab.finish(findText(report, ".//dateMeasured"))
	return lab
}

func findText(e *etree.Element, path string) string {
	found := e.FindElement(path)
	if found == nil {
		return ""
	}
	return strings.TrimSpace(found.Text())
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
