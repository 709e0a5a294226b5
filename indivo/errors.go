/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package indivo

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedToken = errors.New("token response missing oauth_token or oauth_token_secret")
	ErrAppIDRequired  = errors.New("app id is required for long-lived tokens")
	ErrRequestToken   = errors.New("failed to obtain request token")
)

// APIError is returned for every non-2xx response from the Indivo server.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("indivo %s %s returned status %d: %s", e.Method, e.Path, e.Status, body)
}
