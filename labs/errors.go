/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "errors"

var (
	// ErrAuthMismatch is returned when the token in the callback is not the
	// request token issued to this session.
	ErrAuthMismatch = errors.New("oauth token does not match the stored request token")
	// ErrMissingRequestToken is returned when a callback arrives for a session
	// that never started the handshake.
	ErrMissingRequestToken = errors.New("no request token stored in session")
	// ErrAmbiguousScope is returned when both a record and a carenet id are supplied.
	ErrAmbiguousScope = errors.New("only one of record_id or carenet_id may be supplied")
	// ErrUnsupportedScope is returned for lab access without a record scope.
	// Carenet-scoped lab access is not supported.
	ErrUnsupportedScope = errors.New("lab access requires a record-scoped authorization")
	// ErrMalformedReport is returned when a remote report body cannot be decoded.
	ErrMalformedReport = errors.New("malformed lab report")
)
