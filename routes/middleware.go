/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"strings"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
)

const staticPathPrefix = "/static/"

// CSRFInjector exposes the CSRF token to templates as csrf_token.
func CSRFInjector() flamego.Handler {
	return func(x csrf.CSRF, data template.Data) {
		data["csrf_token"] = x.Token()
	}
}

// FlashInjector exposes the flash set by the previous request to templates.
func FlashInjector() flamego.Handler {
	return func(flash session.Flash, data template.Data) {
		if msg, ok := flash.(FlashMessage); ok {
			data["Flash"] = msg
		}
	}
}

// PrivacyHeaders keeps lab pages out of shared caches and search indexes.
// Static assets stay cacheable.
func PrivacyHeaders() flamego.Handler {
	return func(c flamego.Context) {
		header := c.ResponseWriter().Header()
		header.Set("X-Content-Type-Options", "nosniff")

		if strings.HasPrefix(c.Request().URL.Path, staticPathPrefix) {
			c.Next()
			return
		}

		// after_auth carries the OAuth token in its query string.
		header.Set("Referrer-Policy", "no-referrer")
		header.Set("X-Robots-Tag", "noindex, nofollow")
		header.Set("Cache-Control", "no-store")
		header.Set("Pragma", "no-cache")

		c.Next()
	}
}
