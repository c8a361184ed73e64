// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package media

import (
	"context"
	"encoding/base64"
)

// Publisher turns image bytes into a reference the certificate can embed.
// prefix groups related objects ("photos", "portraits") and name is a human
// hint for the object key; implementations may ignore both.
type Publisher interface {
	Publish(ctx context.Context, data []byte, contentType, prefix, name string) (string, error)
}

// DataURIPublisher embeds images inline. It is used when no object storage
// is configured.
type DataURIPublisher struct{}

// Publish returns a base64 data URI for data.
func (DataURIPublisher) Publish(_ context.Context, data []byte, contentType, _, _ string) (string, error) {
	return DataURI(data, contentType), nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
