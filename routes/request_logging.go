/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"

	"github.com/humaidq/indivolabs/labs"
	"github.com/humaidq/indivolabs/logging"
)

const requestIDHeader = "X-Request-ID"

var requestLogger = logging.Logger(logging.SourceWebRequest)

// RequestLogger logs request metadata and timing for each HTTP request and
// tags the response with a request id.
func RequestLogger(c flamego.Context, s session.Session) {
	start := time.Now()

	requestID := strings.TrimSpace(c.Request().Header.Get(requestIDHeader))
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	c.ResponseWriter().Header().Set(requestIDHeader, requestID)

	c.Next()

	status := c.ResponseWriter().Status()
	if status == 0 {
		status = http.StatusOK
	}

	fields := []interface{}{
		"event", "request",
		"request_id", requestID,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	fields = append(fields, baseRequestFields(c, s)...)

	requestLogger.Info("request", fields...)
}

func logHandlerError(c flamego.Context, s session.Session, status int, err error) {
	fields := []interface{}{
		"event", "handler_error",
		"status", status,
		"error", err,
	}
	fields = append(fields, baseRequestFields(c, s)...)

	if status >= http.StatusInternalServerError {
		requestLogger.Error("request failed", fields...)
		return
	}
	requestLogger.Warn("request rejected", fields...)
}

func baseRequestFields(c flamego.Context, s session.Session) []interface{} {
	scope := labs.CurrentScope(s)

	return []interface{}{
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"ip", clientIP(c),
		"user_agent", c.Request().UserAgent(),
		"has_record", scope.IsRecord(),
		"has_carenet", scope.CarenetID != "",
	}
}

func clientIP(c flamego.Context) string {
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		if idx := strings.Index(forwardedFor, ","); idx != -1 {
			forwardedFor = forwardedFor[:idx]
		}

		if ip := strings.TrimSpace(forwardedFor); ip != "" {
			return ip
		}
	}

	return c.RemoteAddr()
}
