package errx

import (
	"encoding/json"
	"net/http"
)

// HTTPErrorResponse is the wire shape HTTP surfaces answer failures
// with. The status code travels in the body as well as the header so
// proxies that rewrite statuses do not lose it.
type HTTPErrorResponse struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       string         `json:"type"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"status_code"`
}

// ToHTTPResponse projects the error into its wire shape.
func (e *Error) ToHTTPResponse() HTTPErrorResponse {
	return HTTPErrorResponse{
		Code:       e.Code,
		Message:    e.Message,
		Type:       string(e.Type),
		Details:    e.Details,
		StatusCode: e.HTTPStatus,
	}
}

// WriteHTTP answers a net/http request with the error.
func (e *Error) WriteHTTP(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus)
	json.NewEncoder(w).Encode(e.ToHTTPResponse())
}

// HandleError writes any error to w: classified errors keep their
// status and code, everything else is answered as an internal failure.
func HandleError(w http.ResponseWriter, err error) {
	var e *Error
	if As(err, &e) {
		e.WriteHTTP(w)
		return
	}
	New(err.Error(), TypeInternal).WriteHTTP(w)
}
