package gql

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

// Response is one GraphQL execution result. Queries and mutations
// yield exactly one; subscriptions yield a stream of them.
type Response struct {
	Data       json.RawMessage  `json:"data,omitempty"`
	Errors     []*ResponseError `json:"errors,omitempty"`
	Extensions map[string]any   `json:"extensions,omitempty"`

	// Meta carries transport-level facts about the exchange. It is
	// populated by the transport and never serialized back out.
	Meta *ResponseMeta `json:"-"`
}

// ResponseError is one entry of the GraphQL errors array
type ResponseError struct {
	Message    string           `json:"message"`
	Path       []any            `json:"path,omitempty"`
	Locations  []*ErrorLocation `json:"locations,omitempty"`
	Extensions map[string]any   `json:"extensions,omitempty"`
}

// ErrorLocation points at the offending spot in the document
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ResponseMeta carries transport-level details of the exchange
type ResponseMeta struct {
	Status int
	Header http.Header
}

// Error implements the error interface so a ResponseError can be
// wrapped as a cause
func (e *ResponseError) Error() string {
	return e.Message
}

// Code returns the error's extensions code, or "" when absent
func (e *ResponseError) Code() string {
	if e.Extensions == nil {
		return ""
	}
	if code, ok := e.Extensions["code"].(string); ok {
		return code
	}
	return ""
}

// HasData reports whether the response carries a non-null data field
func (r *Response) HasData() bool {
	if r == nil || len(r.Data) == 0 {
		return false
	}
	return strings.TrimSpace(string(r.Data)) != "null"
}

// HasErrors reports whether the errors array is non-empty
func (r *Response) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

// ErrorMessages returns the messages of all response errors
func (r *Response) ErrorMessages() []string {
	if !r.HasErrors() {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// DecodeData unmarshals the data field into v
func (r *Response) DecodeData(v any) *errx.Error {
	if !r.HasData() {
		return ErrParse("response has no data to decode")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return ErrParse("cannot decode response data").
			WithDetail("error", err.Error())
	}
	return nil
}
