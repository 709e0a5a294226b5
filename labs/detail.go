/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"fmt"

	"github.com/beevik/etree"

	"github.com/humaidq/indivolabs/indivo"
)

// DocumentFetcher is the remote call the detail view is built on.
type DocumentFetcher interface {
	RecordDocument(ctx context.Context, access indivo.Token, recordID, documentID string) ([]byte, error)
}

// Document is one lab document as stored in the record.
type Document struct {
	ID  string
	Raw string
	// Pretty is the indented XML, or Raw when the body is not XML.
	Pretty string
}

// Detail shows single lab documents.
type Detail struct {
	Client DocumentFetcher
}

// NewDetail returns a detail controller using the given client.
func NewDetail(client DocumentFetcher) *Detail {
	return &Detail{Client: client}
}

// Show fetches the document with the given id from the session's record.
func (d *Detail) Show(ctx context.Context, s Session, id string) (Document, error) {
	access, err := recordAccess(s)
	if err != nil {
		return Document{}, err
	}

	body, err := d.Client.RecordDocument(ctx, access.OAuth(), access.RecordID, id)
	if err != nil {
		return Document{}, fmt.Errorf("failed to load lab document %s: %w", id, err)
	}

	return Document{ID: id, Raw: string(body), Pretty: prettyXML(body)}, nil
}

func prettyXML(body []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return string(body)
	}

	doc.Indent(2)
	out, err := doc.WriteToString()
	if err != nil {
		return string(body)
	}
	return out
}
