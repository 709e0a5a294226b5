/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package indivo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

// DefaultTimeout bounds every remote call when Config.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read into memory.
const maxResponseBytes = 8 << 20

// Config holds the Indivo endpoints and consumer credentials.
type Config struct {
	// APIBase is the Indivo API server, e.g. http://localhost:8000.
	APIBase string
	// UIBase is the Indivo UI server that hosts the authorization page.
	UIBase         string
	ConsumerKey    string
	ConsumerSecret string
	// AppID is the app identifier (usually its e-mail style id) used for long-lived tokens.
	AppID   string
	Timeout time.Duration
}

// Token is an OAuth token together with every parameter the server returned with it.
type Token struct {
	Token  string
	Secret string
	Params url.Values
}

// Get returns an extra response parameter, such as xoauth_indivo_record_id.
func (t Token) Get(key string) string {
	if t.Params == nil {
		return ""
	}
	return t.Params.Get(key)
}

// Client issues OAuth 1.0a signed calls against the Indivo API.
type Client struct {
	cfg        Config
	oauth      *oauth1.Config
	httpClient *http.Client
}

// New creates a client for the given configuration.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.UIBase = strings.TrimRight(cfg.UIBase, "/")

	httpClient := &http.Client{Timeout: cfg.Timeout}

	oc := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	oc.CallbackURL = "oob"
	oc.HTTPClient = httpClient
	oc.Endpoint = oauth1.Endpoint{
		RequestTokenURL: cfg.APIBase + "/oauth/request_token",
		AuthorizeURL:    cfg.UIBase + "/oauth/authorize",
		AccessTokenURL:  cfg.APIBase + "/oauth/access_token",
	}

	return &Client{
		cfg:        cfg,
		oauth:      oc,
		httpClient: httpClient,
	}
}

// FetchRequestToken obtains an unauthorized request token. The oauth_callback
// parameter, when present, replaces the default "oob" callback; every other
// parameter is sent (and signed) with the request.
func (c *Client) FetchRequestToken(ctx context.Context, params url.Values) (Token, error) {
	if err := ctx.Err(); err != nil {
		return Token{}, err
	}

	oc := *c.oauth
	extra := url.Values{}
	for key, values := range params {
		if key == "oauth_callback" {
			if len(values) > 0 && values[0] != "" {
				oc.CallbackURL = values[0]
			}
			continue
		}
		extra[key] = values
	}
	if len(extra) > 0 {
		oc.Endpoint.RequestTokenURL += "?" + extra.Encode()
	}
	oc.HTTPClient = &http.Client{
		Timeout:   c.cfg.Timeout,
		Transport: contextTransport{ctx: ctx, base: c.httpClient.Transport},
	}

	token, secret, err := oc.RequestToken()
	if err != nil {
		logger.Warn("Request token call failed", "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Token{}, fmt.Errorf("%w: %w", ErrRequestToken, ctxErr)
		}
		return Token{}, fmt.Errorf("%w: %w", ErrRequestToken, err)
	}

	return Token{
		Token:  token,
		Secret: secret,
		Params: url.Values{"oauth_token": {token}, "oauth_token_secret": {secret}},
	}, nil
}

// AuthorizeURL returns the UI server page the user must visit to approve the request token.
func (c *Client) AuthorizeURL(requestToken string) (string, error) {
	u, err := c.oauth.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("failed to build authorization url: %w", err)
	}
	return u.String(), nil
}

// ExchangeToken trades an authorized request token and its verifier for an access token.
func (c *Client) ExchangeToken(ctx context.Context, requestToken Token, verifier string) (Token, error) {
	form := url.Values{"oauth_verifier": {verifier}}

	body, err := c.do(ctx, requestToken, http.MethodPost, "/oauth/access_token", nil, form)
	if err != nil {
		return Token{}, err
	}
	return parseToken(body)
}

// LongLivedToken asks for an offline token for the record, signed with the
// current access token.
func (c *Client) LongLivedToken(ctx context.Context, access Token, recordID string) (Token, error) {
	if c.cfg.AppID == "" {
		return Token{}, ErrAppIDRequired
	}

	path := "/apps/" + url.PathEscape(c.cfg.AppID) + "/records/" + url.PathEscape(recordID) + "/access_token"
	body, err := c.do(ctx, access, http.MethodPost, path, nil, url.Values{})
	if err != nil {
		return Token{}, err
	}
	return parseToken(body)
}

// GenericList queries a data model report, returning the raw JSON body.
func (c *Client) GenericList(ctx context.Context, access Token, recordID, dataModel string, params url.Values) ([]byte, error) {
	query := cloneValues(params)
	query.Set("response_format", "application/json")

	path := "/records/" + url.PathEscape(recordID) + "/reports/" + url.PathEscape(dataModel) + "/"
	return c.do(ctx, access, http.MethodGet, path, query, nil)
}

// MinimalReport queries one of the minimal XML reports, e.g. "labs".
func (c *Client) MinimalReport(ctx context.Context, access Token, recordID, report string, params url.Values) ([]byte, error) {
	path := "/records/" + url.PathEscape(recordID) + "/reports/minimal/" + url.PathEscape(report) + "/"
	return c.do(ctx, access, http.MethodGet, path, cloneValues(params), nil)
}

// RecordDocument fetches a single document from a record.
func (c *Client) RecordDocument(ctx context.Context, access Token, recordID, documentID string) ([]byte, error) {
	path := "/records/" + url.PathEscape(recordID) + "/documents/" + url.PathEscape(documentID)
	return c.do(ctx, access, http.MethodGet, path, nil, nil)
}

func (c *Client) do(ctx context.Context, tok Token, method, path string, query, form url.Values) ([]byte, error) {
	endpoint := c.cfg.APIBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	signed := c.oauth.Client(context.WithValue(ctx, oauth1.HTTPClient, c.httpClient), oauth1.NewToken(tok.Token, tok.Secret))
	signed.Timeout = c.cfg.Timeout

	start := time.Now()
	resp, err := signed.Do(req)
	if err != nil {
		logger.Warn("Indivo call failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("indivo %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	logger.Debug("Indivo call", "method", method, "path", path, "status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	return body, nil
}

// contextTransport binds requests built without a context, such as the
// oauth1 request token call, to ctx.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req.WithContext(t.ctx))
}

func parseToken(body []byte) (Token, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return Token{}, fmt.Errorf("failed to parse token response: %w", err)
	}

	tok := Token{
		Token:  values.Get("oauth_token"),
		Secret: values.Get("oauth_token_secret"),
		Params: values,
	}
	if tok.Token == "" || tok.Secret == "" {
		return Token{}, ErrMalformedToken
	}
	return tok, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
