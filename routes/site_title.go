/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"os"
	"strings"

	"github.com/flamego/template"
)

const (
	defaultSiteTitle = "Lab Results"
	siteTitleEnvVar  = "SITE_TITLE"
)

func setSiteTitle(data template.Data) {
	title := strings.TrimSpace(os.Getenv(siteTitleEnvVar))
	if title == "" {
		title = defaultSiteTitle
	}

	data["SiteTitle"] = title
}

func setPageTitle(data template.Data, page string) {
	setSiteTitle(data)

	if page == "" {
		data["PageTitle"] = data["SiteTitle"]
		return
	}
	data["PageTitle"] = page + " - " + data["SiteTitle"].(string)
}
