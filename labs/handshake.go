/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"fmt"
	"net/url"

	"github.com/humaidq/indivolabs/indivo"
)

// Parameters returned with an access token that name the granted scope.
const (
	paramRecordID  = "xoauth_indivo_record_id"
	paramCarenetID = "xoauth_indivo_carenet_id"
)

// Authorizer is the part of the remote client the handshake drives.
type Authorizer interface {
	FetchRequestToken(ctx context.Context, params url.Values) (indivo.Token, error)
	AuthorizeURL(requestToken string) (string, error)
	ExchangeToken(ctx context.Context, requestToken indivo.Token, verifier string) (indivo.Token, error)
	LongLivedToken(ctx context.Context, access indivo.Token, recordID string) (indivo.Token, error)
}

// UpgradeStatus is the outcome of the best-effort long-lived token upgrade.
type UpgradeStatus int

const (
	UpgradeSkipped UpgradeStatus = iota
	UpgradeGranted
	UpgradeFailed
)

func (u UpgradeStatus) String() string {
	switch u {
	case UpgradeGranted:
		return "granted"
	case UpgradeFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Completion describes a finished handshake.
type Completion struct {
	Scope     Scope
	LongLived UpgradeStatus
	// UpgradeErr holds the swallowed cause when LongLived is UpgradeFailed.
	UpgradeErr error
}

// Handshake drives the three-legged OAuth 1.0a flow against Indivo.
type Handshake struct {
	Client Authorizer
}

// NewHandshake returns a handshake controller using the given client.
func NewHandshake(client Authorizer) *Handshake {
	return &Handshake{Client: client}
}

// Begin obtains a request token for the scope, stores it in the session and
// returns the URL the user must be sent to.
func (h *Handshake) Begin(ctx context.Context, s Session, scope Scope) (string, error) {
	if scope.RecordID != "" && scope.CarenetID != "" {
		return "", ErrAmbiguousScope
	}

	params := url.Values{
		"oauth_callback": {"oob"},
		"offline":        {"true"},
	}
	if scope.RecordID != "" {
		params.Set("indivo_record_id", scope.RecordID)
	}
	if scope.CarenetID != "" {
		params.Set("indivo_carenet_id", scope.CarenetID)
	}

	tok, err := h.Client.FetchRequestToken(ctx, params)
	if err != nil {
		return "", err
	}

	s.Set(KeyRequestToken, RequestToken{Token: tok.Token, Secret: tok.Secret})

	return h.Client.AuthorizeURL(tok.Token)
}

// Complete verifies the callback token against the session, exchanges it for
// an access token and records the granted scope.
func (h *Handshake) Complete(ctx context.Context, s Session, oauthToken, verifier string) (Completion, error) {
	stored, ok := s.Get(KeyRequestToken).(RequestToken)
	if !ok {
		return Completion{}, ErrMissingRequestToken
	}
	if stored.Token != oauthToken {
		return Completion{}, ErrAuthMismatch
	}

	granted, err := h.Client.ExchangeToken(ctx, indivo.Token{Token: stored.Token, Secret: stored.Secret}, verifier)
	if err != nil {
		return Completion{}, fmt.Errorf("failed to exchange request token: %w", err)
	}
	s.Delete(KeyRequestToken)

	access := AccessToken{Token: granted.Token, Secret: granted.Secret}

	var done Completion
	if recordID := granted.Get(paramRecordID); recordID != "" {
		access.RecordID = recordID
		s.Set(KeyRecordID, recordID)
		s.Delete(KeyCarenetID)
	} else {
		access.CarenetID = granted.Get(paramCarenetID)
		s.Delete(KeyRecordID)
		s.Set(KeyCarenetID, access.CarenetID)
	}
	s.Set(KeyAccessToken, access)
	s.Delete(KeyLongLivedToken)

	done.Scope = Scope{RecordID: access.RecordID, CarenetID: access.CarenetID}
	done.LongLived, done.UpgradeErr = h.upgrade(ctx, s, access)

	return done, nil
}

func (h *Handshake) upgrade(ctx context.Context, s Session, access AccessToken) (UpgradeStatus, error) {
	if access.RecordID == "" {
		return UpgradeSkipped, nil
	}

	long, err := h.Client.LongLivedToken(ctx, access.OAuth(), access.RecordID)
	if err != nil {
		logger.Warn("Long-lived token upgrade failed", "record_id", access.RecordID, "error", err)
		return UpgradeFailed, err
	}

	s.Set(KeyLongLivedToken, AccessToken{
		Token:    long.Token,
		Secret:   long.Secret,
		RecordID: access.RecordID,
	})

	return UpgradeGranted, nil
}
