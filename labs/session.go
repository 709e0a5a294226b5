/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"encoding/gob"

	"github.com/humaidq/indivolabs/indivo"
)

// Session keys read and written by the controllers.
const (
	KeyRequestToken   = "request_token"
	KeyAccessToken    = "access_token"
	KeyRecordID       = "record_id"
	KeyCarenetID      = "carenet_id"
	KeyLongLivedToken = "long_lived_token"
	KeyDateStart      = "date_start"
	KeyDateEnd        = "date_end"
)

// Session is the per-browser key/value store threaded through every
// controller call. flamego's session.Session satisfies it.
type Session interface {
	Get(key interface{}) interface{}
	Set(key, val interface{})
	Delete(key interface{})
}

// RequestToken is held in the session between the redirect to the
// authorization page and the callback.
type RequestToken struct {
	Token  string
	Secret string
}

// AccessToken is the authorized token and the scope it was granted for.
// Exactly one of RecordID and CarenetID is set.
type AccessToken struct {
	Token     string
	Secret    string
	RecordID  string
	CarenetID string
}

// OAuth returns the token in the form the remote client signs with.
func (a AccessToken) OAuth() indivo.Token {
	return indivo.Token{Token: a.Token, Secret: a.Secret}
}

// Scope identifies what an authorization grant covers.
type Scope struct {
	RecordID  string
	CarenetID string
}

// IsRecord reports whether the scope is a single record.
func (s Scope) IsRecord() bool {
	return s.RecordID != ""
}

func init() {
	// Session stores serialize values with gob.
	gob.Register(RequestToken{})
	gob.Register(AccessToken{})
}

// CurrentScope returns the scope stored in the session, if any.
func CurrentScope(s Session) Scope {
	recordID, _ := s.Get(KeyRecordID).(string)
	carenetID, _ := s.Get(KeyCarenetID).(string)
	return Scope{RecordID: recordID, CarenetID: carenetID}
}

// Forget removes every token, scope and filter written by the controllers.
func Forget(s Session) {
	for _, key := range []string{
		KeyRequestToken,
		KeyAccessToken,
		KeyRecordID,
		KeyCarenetID,
		KeyLongLivedToken,
		KeyDateStart,
		KeyDateEnd,
	} {
		s.Delete(key)
	}
}

// recordAccess returns the access token for a record-scoped session.
func recordAccess(s Session) (AccessToken, error) {
	recordID, _ := s.Get(KeyRecordID).(string)
	access, ok := s.Get(KeyAccessToken).(AccessToken)
	if recordID == "" || !ok {
		return AccessToken{}, ErrUnsupportedScope
	}

	access.RecordID = recordID
	return access, nil
}
