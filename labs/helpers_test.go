// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package labs

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/humaidq/indivolabs/indivo"
)

type testSession struct {
	data map[interface{}]interface{}
}

func newTestSession() *testSession {
	return &testSession{data: make(map[interface{}]interface{})}
}

func (s *testSession) Get(key interface{}) interface{} {
	return s.data[key]
}

func (s *testSession) Set(key, val interface{}) {
	s.data[key] = val
}

func (s *testSession) Delete(key interface{}) {
	delete(s.data, key)
}

// recordSession returns a session that completed the handshake for rec-1.
func recordSession() *testSession {
	s := newTestSession()
	s.Set(KeyRecordID, "rec-1")
	s.Set(KeyAccessToken, AccessToken{Token: "at", Secret: "as", RecordID: "rec-1"})
	return s
}

type fakeSource struct {
	options []FilterOption
	oldest  []Lab
	page    []Lab
	total   int
	queries []Query
	err     error
}

func (f *fakeSource) FilterParam() string { return "lab_status" }
func (f *fakeSource) FilterLabel() string { return "Status" }
func (f *fakeSource) DateField() string   { return "collected_at" }

func (f *fakeSource) SortOptions() []SortOption {
	return []SortOption{{Field: "collected_at"}, {Field: "test_name_title"}}
}

func (f *fakeSource) FilterOptions(context.Context, AccessToken) ([]FilterOption, error) {
	return f.options, nil
}

func (f *fakeSource) Fetch(_ context.Context, _ AccessToken, q Query) (Batch, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return Batch{}, f.err
	}
	if q.DateRange == nil {
		return Batch{Labs: f.oldest, Total: UnknownTotal}, nil
	}
	total := f.total
	if total == 0 {
		total = UnknownTotal
	}
	return Batch{Labs: f.page, Total: total}, nil
}

// mainQuery returns the last query that carried a date range.
func (f *fakeSource) mainQuery(t *testing.T) Query {
	t.Helper()

	for i := len(f.queries) - 1; i >= 0; i-- {
		if f.queries[i].DateRange != nil {
			return f.queries[i]
		}
	}
	t.Fatal("no list query was issued")
	return Query{}
}

type fakeAuthorizer struct {
	requestParams url.Values
	exchanged     indivo.Token
	access        indivo.Token
	longLived     indivo.Token
	longLivedErr  error
	exchangeErr   error
}

func (f *fakeAuthorizer) FetchRequestToken(_ context.Context, params url.Values) (indivo.Token, error) {
	f.requestParams = params
	return indivo.Token{Token: "rt", Secret: "rs"}, nil
}

func (f *fakeAuthorizer) AuthorizeURL(requestToken string) (string, error) {
	return "https://ui.example.org/oauth/authorize?oauth_token=" + requestToken, nil
}

func (f *fakeAuthorizer) ExchangeToken(_ context.Context, requestToken indivo.Token, _ string) (indivo.Token, error) {
	f.exchanged = requestToken
	if f.exchangeErr != nil {
		return indivo.Token{}, f.exchangeErr
	}
	return f.access, nil
}

func (f *fakeAuthorizer) LongLivedToken(context.Context, indivo.Token, string) (indivo.Token, error) {
	if f.longLivedErr != nil {
		return indivo.Token{}, f.longLivedErr
	}
	return f.longLived, nil
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()

	tm, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}

	return tm
}

func labAt(t *testing.T, id, date string) Lab {
	t.Helper()
	return Lab{ID: id, CollectedAt: mustParseTime(t, date)}
}
