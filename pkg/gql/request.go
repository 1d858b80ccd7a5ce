package gql

// Request is one GraphQL call travelling through the pipeline: the
// operation plus its variables. Out-of-band state (cancellation signal,
// correlation id, outbound headers) travels in the context.Context
// instead; see context.go.
//
// Variables may contain nested maps, slices and *Upload leaves at any
// depth. The transport decides how uploads reach the wire.
type Request struct {
	Operation *Operation
	Variables map[string]any
}

// NewRequest creates a request for the given operation
func NewRequest(op *Operation) *Request {
	return &Request{
		Operation: op,
		Variables: make(map[string]any),
	}
}

// WithVariable sets a single variable
func (r *Request) WithVariable(name string, value any) *Request {
	if r.Variables == nil {
		r.Variables = make(map[string]any)
	}
	r.Variables[name] = value
	return r
}

// WithVariables merges variables into the request
func (r *Request) WithVariables(vars map[string]any) *Request {
	if r.Variables == nil {
		r.Variables = make(map[string]any, len(vars))
	}
	for k, v := range vars {
		r.Variables[k] = v
	}
	return r
}
