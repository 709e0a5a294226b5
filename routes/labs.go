/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"

	"github.com/humaidq/indivolabs/labs"
)

// Index lands on the lab list.
func Index(c flamego.Context) {
	c.Redirect("/labs", http.StatusFound)
}

// StartAuth sends the browser to the authorization page for the record or
// carenet named in the query.
func StartAuth(c flamego.Context, s session.Session, t template.Template, data template.Data, h *labs.Handshake) {
	scope := labs.Scope{
		RecordID:  strings.TrimSpace(c.Query("record_id")),
		CarenetID: strings.TrimSpace(c.Query("carenet_id")),
	}

	redirect, err := h.Begin(c.Request().Context(), s, scope)
	if err != nil {
		renderError(c, s, t, data, err)
		return
	}

	c.Redirect(redirect, http.StatusFound)
}

// AfterAuth completes the handshake when the authorization page sends the
// browser back.
func AfterAuth(c flamego.Context, s session.Session, t template.Template, data template.Data, h *labs.Handshake) {
	done, err := h.Complete(
		c.Request().Context(),
		s,
		strings.TrimSpace(c.Query("oauth_token")),
		strings.TrimSpace(c.Query("oauth_verifier")),
	)
	if err != nil {
		renderError(c, s, t, data, err)
		return
	}

	if done.LongLived == labs.UpgradeFailed {
		SetErrorFlash(s, "Signed in, but offline access could not be granted. You may need to sign in again later.")
	}

	c.Redirect("/labs", http.StatusFound)
}

// ListLabs renders one page of the record's labs.
func ListLabs(c flamego.Context, s session.Session, t template.Template, data template.Data, listing *labs.Listing) {
	params := listing.ParseParams(c.Request().URL.Query())

	page, err := listing.List(c.Request().Context(), s, params)
	if err != nil {
		renderError(c, s, t, data, err)
		return
	}

	data["Page"] = page
	data["Charts"] = labCharts(page.Labs)
	setPageTitle(data, "Labs")

	t.HTML(http.StatusOK, "labs_list")
}

// ShowLab renders the stored document of one lab.
func ShowLab(c flamego.Context, s session.Session, t template.Template, data template.Data, detail *labs.Detail) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		renderError(c, s, t, data, errInvalidLabID)
		return
	}

	doc, err := detail.Show(c.Request().Context(), s, id)
	if err != nil {
		renderError(c, s, t, data, err)
		return
	}

	data["Document"] = doc
	setPageTitle(data, "Lab "+id)

	t.HTML(http.StatusOK, "lab_show")
}

// Logout forgets the tokens, scope and filters held for this browser.
func Logout(c flamego.Context, s session.Session) {
	labs.Forget(s)
	SetInfoFlash(s, "Authorization removed from this browser.")
	c.Redirect("/labs", http.StatusSeeOther)
}

func renderError(c flamego.Context, s session.Session, t template.Template, data template.Data, err error) {
	status, message := errorStatus(err)
	logHandlerError(c, s, status, err)

	data["ErrorStatus"] = status
	data["ErrorMessage"] = message
	data["CanStartAuth"] = errors.Is(err, labs.ErrUnsupportedScope) ||
		errors.Is(err, labs.ErrAuthMismatch) ||
		errors.Is(err, labs.ErrMissingRequestToken)
	setPageTitle(data, http.StatusText(status))

	t.HTML(status, "error")
}
