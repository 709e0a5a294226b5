/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("migrations need a database: pass --database-url or set DATABASE_URL")
	errMigrationNameRequired = errors.New("usage: migrate create <name>")
	errCSRFSecretRequired    = errors.New("CSRF_SECRET is required")
	errIndivoAPIURLRequired  = errors.New("INDIVO_API_URL is required")
	errIndivoUIURLRequired   = errors.New("INDIVO_UI_URL is required")
	errConsumerKeyRequired   = errors.New("INDIVO_CONSUMER_KEY and INDIVO_CONSUMER_SECRET are required")
	errInvalidAPIVariant     = errors.New("api-variant must be one of: json, xml")
	errInvalidRemoteTimeout  = errors.New("remote-timeout must be positive")
)
