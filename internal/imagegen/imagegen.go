// Package imagegen defines the backend-neutral view of an image generation
// call: a Generator turns a prompt into an ordered list of content parts.
package imagegen

import "context"

// Blob is inline binary data as delivered by the upstream API.
// Data holds the transport encoding (standard base64), not raw bytes.
type Blob struct {
	MIMEType string
	Data     string
}

// Part is one unit of a generation response: commentary text, inline image
// data, or neither.
type Part struct {
	Text       string
	InlineData *Blob
}

// Response holds the parts of the first response candidate, in order.
type Response struct {
	Parts []Part
}

// Generator produces content for a prompt.
type Generator interface {
	// Name identifies the backend; it prefixes the files written for it.
	Name() string
	Generate(ctx context.Context, prompt string) (*Response, error)
}
