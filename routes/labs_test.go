// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/indivolabs/indivo"
	"github.com/humaidq/indivolabs/labs"
	"github.com/humaidq/indivolabs/templates"
)

const testLabID = "0b2f61e4-2d52-4f4b-9c55-1d3f5c1a1a11"

type fakeAuthorizer struct {
	access       indivo.Token
	longLivedErr error
}

func (f *fakeAuthorizer) FetchRequestToken(context.Context, url.Values) (indivo.Token, error) {
	return indivo.Token{Token: "rt", Secret: "rs"}, nil
}

func (f *fakeAuthorizer) AuthorizeURL(requestToken string) (string, error) {
	return "https://ui.example.org/oauth/authorize?oauth_token=" + requestToken, nil
}

func (f *fakeAuthorizer) ExchangeToken(context.Context, indivo.Token, string) (indivo.Token, error) {
	return f.access, nil
}

func (f *fakeAuthorizer) LongLivedToken(context.Context, indivo.Token, string) (indivo.Token, error) {
	if f.longLivedErr != nil {
		return indivo.Token{}, f.longLivedErr
	}
	return indivo.Token{Token: "ll", Secret: "lls"}, nil
}

type fakeSource struct {
	labs []labs.Lab
	err  error
}

func (f *fakeSource) FilterParam() string { return "lab_status" }
func (f *fakeSource) FilterLabel() string { return "Status" }
func (f *fakeSource) DateField() string   { return "collected_at" }

func (f *fakeSource) SortOptions() []labs.SortOption {
	return []labs.SortOption{{Field: "collected_at", Title: "Date Collected"}}
}

func (f *fakeSource) FilterOptions(context.Context, labs.AccessToken) ([]labs.FilterOption, error) {
	return labs.LabStatuses, nil
}

func (f *fakeSource) Fetch(context.Context, labs.AccessToken, labs.Query) (labs.Batch, error) {
	if f.err != nil {
		return labs.Batch{}, f.err
	}
	return labs.Batch{Labs: f.labs, Total: labs.UnknownTotal}, nil
}

type fakeFetcher struct {
	body string
	err  error
}

func (f *fakeFetcher) RecordDocument(context.Context, indivo.Token, string, string) ([]byte, error) {
	return []byte(f.body), f.err
}

type labsTestDeps struct {
	client  *fakeAuthorizer
	source  *fakeSource
	fetcher *fakeFetcher
}

func newLabsTestApp(t *testing.T, s *testSession, deps labsTestDeps) *flamego.Flame {
	t.Helper()

	if deps.client == nil {
		deps.client = &fakeAuthorizer{}
	}
	if deps.source == nil {
		deps.source = &fakeSource{}
	}
	if deps.fetcher == nil {
		deps.fetcher = &fakeFetcher{}
	}

	fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	f := flamego.New()
	f.Use(template.Templater(template.Options{FileSystem: fs}))
	f.Use(func(c flamego.Context) {
		c.MapTo(s, (*session.Session)(nil))
		c.Next()
	})
	f.Map(labs.NewHandshake(deps.client))
	f.Map(labs.NewListing(deps.source))
	f.Map(labs.NewDetail(deps.fetcher))

	f.Get("/", Index)
	f.Get("/start_auth", StartAuth)
	f.Get("/after_auth", AfterAuth)
	f.Get("/labs", ListLabs)
	f.Get("/lab/{id}", ShowLab)
	f.Post("/logout", Logout)

	return f
}

func recordTestSession() *testSession {
	s := newTestSession()
	s.Set(labs.KeyRecordID, "rec-1")
	s.Set(labs.KeyAccessToken, labs.AccessToken{Token: "at", Secret: "as", RecordID: "rec-1"})
	return s
}

func performGET(t *testing.T, f *flamego.Flame, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestIndexRedirectsToLabs(t *testing.T) {
	t.Parallel()

	rec := performGET(t, newLabsTestApp(t, newTestSession(), labsTestDeps{}), "/")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/labs" {
		t.Fatalf("expected redirect to /labs, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestStartAuthRedirectsToAuthorizePage(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	rec := performGET(t, newLabsTestApp(t, s, labsTestDeps{}), "/start_auth?record_id=rec-1")

	if rec.Code != http.StatusFound {
		t.Fatalf("expected status %d, got %d", http.StatusFound, rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "https://ui.example.org/oauth/authorize?oauth_token=rt" {
		t.Fatalf("unexpected redirect %q", got)
	}
	if _, ok := s.Get(labs.KeyRequestToken).(labs.RequestToken); !ok {
		t.Fatalf("expected request token in session")
	}
}

func TestStartAuthRejectsBothScopes(t *testing.T) {
	t.Parallel()

	rec := performGET(t, newLabsTestApp(t, newTestSession(), labsTestDeps{}), "/start_auth?record_id=r&carenet_id=c")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestAfterAuthTokenMismatch(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	s.Set(labs.KeyRequestToken, labs.RequestToken{Token: "rt", Secret: "rs"})

	rec := performGET(t, newLabsTestApp(t, s, labsTestDeps{}), "/after_auth?oauth_token=forged&oauth_verifier=v")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "did not match") {
		t.Fatalf("expected mismatch message, got %q", rec.Body.String())
	}
	if s.Get(labs.KeyAccessToken) != nil {
		t.Fatalf("access token must not be stored after a mismatch")
	}
}

func TestAfterAuthRedirectsToLabs(t *testing.T) {
	t.Parallel()

	client := &fakeAuthorizer{access: indivo.Token{
		Token:  "at",
		Secret: "as",
		Params: url.Values{"xoauth_indivo_record_id": {"rec-1"}},
	}}
	s := newTestSession()
	s.Set(labs.KeyRequestToken, labs.RequestToken{Token: "rt", Secret: "rs"})

	rec := performGET(t, newLabsTestApp(t, s, labsTestDeps{client: client}), "/after_auth?oauth_token=rt&oauth_verifier=v")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/labs" {
		t.Fatalf("expected redirect to /labs, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if s.flash != nil {
		t.Fatalf("expected no flash, got %#v", s.flash)
	}
	if s.Get(labs.KeyRecordID) != "rec-1" {
		t.Fatalf("expected record scope in session")
	}
}

func TestAfterAuthUpgradeFailureSetsFlash(t *testing.T) {
	t.Parallel()

	client := &fakeAuthorizer{
		access: indivo.Token{
			Token:  "at",
			Secret: "as",
			Params: url.Values{"xoauth_indivo_record_id": {"rec-1"}},
		},
		longLivedErr: &indivo.APIError{Status: http.StatusForbidden},
	}
	s := newTestSession()
	s.Set(labs.KeyRequestToken, labs.RequestToken{Token: "rt", Secret: "rs"})

	rec := performGET(t, newLabsTestApp(t, s, labsTestDeps{client: client}), "/after_auth?oauth_token=rt&oauth_verifier=v")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}

	msg, ok := s.flash.(FlashMessage)
	if !ok || msg.Type != FlashError || !strings.Contains(msg.Message, "offline access") {
		t.Fatalf("expected error flash about offline access, got %#v", s.flash)
	}
}

func TestListLabsWithoutScope(t *testing.T) {
	t.Parallel()

	rec := performGET(t, newLabsTestApp(t, newTestSession(), labsTestDeps{}), "/labs")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected status %d, got %d", http.StatusNotImplemented, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/start_auth"`) {
		t.Fatalf("expected authorization form on error page")
	}
}

func TestListLabsRendersPage(t *testing.T) {
	t.Parallel()

	source := &fakeSource{labs: []labs.Lab{
		{
			ID:                  testLabID,
			TestName:            "Hemoglobin",
			CollectedAt:         mustParseTime(t, "2024-03-05T10:30:00Z"),
			ClassificationTitle: "Final",
			Value:               "18.2",
			Unit:                "g/dL",
			NormalMin:           "12",
			NormalMax:           "16",
			Org:                 "City Lab",
			Address:             labs.NotSupplied,
			Abnormal:            true,
		},
		{
			TestName:       "Glucose",
			DateParseError: true,
			Org:            labs.NotSupplied,
			Address:        labs.NotSupplied,
		},
	}}

	rec := performGET(t, newLabsTestApp(t, recordTestSession(), labsTestDeps{source: source}), "/labs?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	body := rec.Body.String()
	for _, want := range []string{
		"Hemoglobin",
		"/lab/" + testLabID,
		`class="abnormal"`,
		labs.ParseErrorSentinel,
		labs.NotSupplied,
		"Showing Results 1-2",
		"Next",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %q", want)
		}
	}
}

func TestListLabsRemoteFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: &indivo.APIError{Method: http.MethodGet, Path: "/records/rec-1/reports/LabResult/", Status: http.StatusInternalServerError}}

	rec := performGET(t, newLabsTestApp(t, recordTestSession(), labsTestDeps{source: source}), "/labs")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, rec.Code)
	}
}

func TestShowLab(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		fetcher  *fakeFetcher
		session  *testSession
		wantCode int
		wantBody string
	}{
		{
			name:     "invalid id",
			path:     "/lab/not-a-uuid",
			fetcher:  &fakeFetcher{},
			session:  recordTestSession(),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing scope",
			path:     "/lab/" + testLabID,
			fetcher:  &fakeFetcher{},
			session:  newTestSession(),
			wantCode: http.StatusNotImplemented,
		},
		{
			name:     "remote not found",
			path:     "/lab/" + testLabID,
			fetcher:  &fakeFetcher{err: &indivo.APIError{Status: http.StatusNotFound}},
			session:  recordTestSession(),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "remote failure",
			path:     "/lab/" + testLabID,
			fetcher:  &fakeFetcher{err: &indivo.APIError{Status: http.StatusInternalServerError}},
			session:  recordTestSession(),
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "document",
			path:     "/lab/" + testLabID,
			fetcher:  &fakeFetcher{body: "<LabReport><labTest><name>WBC</name></labTest></LabReport>"},
			session:  recordTestSession(),
			wantCode: http.StatusOK,
			wantBody: "&lt;name&gt;WBC&lt;/name&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := performGET(t, newLabsTestApp(t, tt.session, labsTestDeps{fetcher: tt.fetcher}), tt.path)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Fatalf("expected body to contain %q", tt.wantBody)
			}
		})
	}
}

func TestLogoutForgetsAuthorization(t *testing.T) {
	t.Parallel()

	s := recordTestSession()
	s.Set(labs.KeyDateStart, "2024-01-01T00:00:00Z")

	rec := httptest.NewRecorder()
	newLabsTestApp(t, s, labsTestDeps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if len(s.data) != 0 {
		t.Fatalf("expected session to be cleared, got %v", s.data)
	}
	if _, ok := s.flash.(FlashMessage); !ok {
		t.Fatalf("expected flash after logout")
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: labs.ErrAuthMismatch, want: http.StatusBadRequest},
		{err: labs.ErrMissingRequestToken, want: http.StatusBadRequest},
		{err: labs.ErrAmbiguousScope, want: http.StatusBadRequest},
		{err: labs.ErrUnsupportedScope, want: http.StatusNotImplemented},
		{err: errInvalidLabID, want: http.StatusNotFound},
		{err: fmt.Errorf("wrapped: %w", &indivo.APIError{Status: http.StatusUnauthorized}), want: http.StatusBadGateway},
		{err: fmt.Errorf("wrapped: %w", &indivo.APIError{Status: http.StatusNotFound}), want: http.StatusNotFound},
		{err: fmt.Errorf("%w: eof", labs.ErrMalformedReport), want: http.StatusBadGateway},
		{err: fmt.Errorf("%w: dial", indivo.ErrRequestToken), want: http.StatusBadGateway},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, message := errorStatus(tt.err)
		if status != tt.want {
			t.Fatalf("errorStatus(%v) = %d, want %d", tt.err, status, tt.want)
		}
		if message == "" {
			t.Fatalf("errorStatus(%v) returned an empty message", tt.err)
		}
	}
}
