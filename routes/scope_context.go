/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/indivolabs/labs"
)

// ScopeContextInjector loads the authorized scope into templates.
func ScopeContextInjector() flamego.Handler {
	return func(s session.Session, data template.Data) {
		scope := labs.CurrentScope(s)
		data["RecordID"] = scope.RecordID
		data["CarenetID"] = scope.CarenetID
		data["IsAuthorized"] = scope.RecordID != "" || scope.CarenetID != ""

		_, longLived := s.Get(labs.KeyLongLivedToken).(labs.AccessToken)
		data["HasOfflineAccess"] = longLived
	}
}
