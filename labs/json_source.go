/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/humaidq/indivolabs/indivo"
)

// LabStatuses is the fixed status enumeration of the JSON API, in display order.
var LabStatuses = []FilterOption{
	{ID: "correction", Title: "Correction"},
	{ID: "preliminary", Title: "Preliminary"},
	{ID: "final", Title: "Final"},
}

const (
	labResultModel  = "LabResult"
	jsonDateField   = "collected_at"
	jsonFilterParam = "lab_status"
	jsonOrgAdr      = "collected_by_org_adr_"
)

// GenericLister is the remote call the JSON source is built on.
type GenericLister interface {
	GenericList(ctx context.Context, access indivo.Token, recordID, dataModel string, params url.Values) ([]byte, error)
}

// JSONSource reads LabResult objects from the generic JSON reports API.
// It filters by status and has no total count.
type JSONSource struct {
	client GenericLister
}

// NewJSONSource returns a source backed by the generic list call.
func NewJSONSource(client GenericLister) *JSONSource {
	return &JSONSource{client: client}
}

func (j *JSONSource) FilterParam() string { return jsonFilterParam }
func (j *JSONSource) FilterLabel() string { return "Status" }
func (j *JSONSource) DateField() string   { return jsonDateField }

func (j *JSONSource) SortOptions() []SortOption {
	return []SortOption{
		{Field: "collected_at", Title: "Date Collected"},
		{Field: "-collected_at", Title: "Date Collected (newest)"},
		{Field: "test_name_title", Title: "Test Name"},
		{Field: "created_at", Title: "Date Added"},
	}
}

func (j *JSONSource) FilterOptions(context.Context, AccessToken) ([]FilterOption, error) {
	return LabStatuses, nil
}

func (j *JSONSource) Fetch(ctx context.Context, access AccessToken, q Query) (Batch, error) {
	params := url.Values{
		"limit":  {strconv.Itoa(q.Limit)},
		"offset": {strconv.Itoa(q.Offset)},
	}
	if q.OrderBy != "" {
		params.Set("order_by", q.OrderBy)
	}
	if q.filtered() {
		params.Set("status_identifier", q.Filter)
	}
	if q.DateRange != nil {
		params.Set("date_range", dateRangeParam(jsonDateField, q.DateRange))
	}

	body, err := j.client.GenericList(ctx, access.OAuth(), access.RecordID, labResultModel, params)
	if err != nil {
		return Batch{}, err
	}

	labs, err := parseJSONLabs(body)
	if err != nil {
		return Batch{}, err
	}

	return Batch{Labs: labs, Total: UnknownTotal}, nil
}

func parseJSONLabs(body []byte) ([]Lab, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw []map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReport, err)
	}

	labs := make([]Lab, 0, len(raw))
	for _, obj := range raw {
		labs = append(labs, jsonLab(obj))
	}
	return labs, nil
}

func jsonLab(obj map[string]interface{}) Lab {
	lab := Lab{
		ID:             jsonString(obj, "__documentid__"),
		TestName:       jsonString(obj, "test_name_title"),
		Classification: jsonString(obj, "status_identifier"),
		Value:          jsonString(obj, "quantitative_result_value_value"),
		Unit:           jsonString(obj, "quantitative_result_value_unit_abbrev"),
		NormalMin:      jsonString(obj, "quantitative_result_normal_range_min_value"),
		NormalMax:      jsonString(obj, "quantitative_result_normal_range_max_value"),
		Interpretation: jsonString(obj, "abnormal_interpretation_identifier"),
		Org:            jsonString(obj, "collected_by_org_name"),
		Address: joinAddress(
			jsonString(obj, jsonOrgAdr+"street"),
			jsonString(obj, jsonOrgAdr+"city"),
			jsonString(obj, jsonOrgAdr+"region"),
			jsonString(obj, jsonOrgAdr+"postalcode"),
			jsonString(obj, jsonOrgAdr+"country"),
		),
	}

	lab.ClassificationTitle = "Unknown"
	for _, status := range LabStatuses {
		if status.ID == lab.Classification {
			lab.ClassificationTitle = status.Title
			break
		}
	}

	lab.finish(jsonString(obj, jsonDateField))
	return lab
}

func jsonString(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
