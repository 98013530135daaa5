package models

import "encoding/json"

// Envelope wraps every backend response body.
type Envelope[T any] struct {
	Data       T      `json:"data"`
	StatusCode int    `json:"statusCode"`
	IsSuccess  bool   `json:"isSuccess"`
	Message    string `json:"message,omitempty"`
}

// PageEnvelope is the list variant of Envelope. Paging fields are carried
// on the wire but not used by the front-end.
type PageEnvelope[T any] struct {
	Envelope[[]T]
	TotalItems int `json:"totalItems"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// RawEnvelope defers decoding of data until the caller knows its type.
type RawEnvelope = Envelope[json.RawMessage]
