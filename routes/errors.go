/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"

	"github.com/humaidq/indivolabs/indivo"
	"github.com/humaidq/indivolabs/labs"
)

var errInvalidLabID = errors.New("invalid lab id")

// errorStatus maps a controller error to the response status and the
// message shown on the error page.
func errorStatus(err error) (int, string) {
	var apiErr *indivo.APIError

	switch {
	case errors.Is(err, labs.ErrAuthMismatch):
		return http.StatusBadRequest, "The authorization token did not match the one this browser requested. Please start again."
	case errors.Is(err, labs.ErrMissingRequestToken):
		return http.StatusBadRequest, "No authorization is in progress for this browser. Please start again."
	case errors.Is(err, labs.ErrAmbiguousScope):
		return http.StatusBadRequest, "Choose either a record or a carenet, not both."
	case errors.Is(err, labs.ErrUnsupportedScope):
		return http.StatusNotImplemented, "Lab results can only be shown for an authorized record."
	case errors.Is(err, errInvalidLabID):
		return http.StatusNotFound, "Lab not found."
	case errors.As(err, &apiErr):
		if apiErr.Status == http.StatusNotFound {
			return http.StatusNotFound, "Lab not found."
		}
		return http.StatusBadGateway, "The health record server returned an error."
	case errors.Is(err, indivo.ErrRequestToken), errors.Is(err, labs.ErrMalformedReport):
		return http.StatusBadGateway, "The health record server could not be reached or sent an unexpected response."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}
