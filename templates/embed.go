/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package templates

import "embed"

// Templates holds the page templates, rendered by file name without the
// extension.
//
//go:embed *.html
var Templates embed.FS
