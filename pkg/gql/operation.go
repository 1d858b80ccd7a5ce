package gql

import "strings"

// OperationKind classifies a GraphQL operation.
type OperationKind string

const (
	KindQuery        OperationKind = "query"
	KindMutation     OperationKind = "mutation"
	KindSubscription OperationKind = "subscription"
)

// ReadOnly reports whether operations of this kind have no side effects.
// Only read-only operations may be sent as GET requests.
func (k OperationKind) ReadOnly() bool {
	return k == KindQuery
}

// String returns the string representation of the kind
func (k OperationKind) String() string {
	return string(k)
}

// Operation is a GraphQL operation: its document text, an optional
// operation name and its kind. The document is carried as source text;
// parsing it is the server's job.
type Operation struct {
	Name     string
	Document string
	Kind     OperationKind
}

// NewQuery creates a query operation
func NewQuery(document string) *Operation {
	return &Operation{Document: document, Kind: KindQuery}
}

// NewMutation creates a mutation operation
func NewMutation(document string) *Operation {
	return &Operation{Document: document, Kind: KindMutation}
}

// NewSubscription creates a subscription operation
func NewSubscription(document string) *Operation {
	return &Operation{Document: document, Kind: KindSubscription}
}

// NewOperation creates an operation and infers its kind from the leading
// keyword of the document. Shorthand documents ("{ ... }") are queries.
func NewOperation(name, document string) *Operation {
	return &Operation{Name: name, Document: document, Kind: inferKind(document)}
}

// WithName sets the operation name
func (o *Operation) WithName(name string) *Operation {
	o.Name = name
	return o
}

// Identity returns the stable identity of the operation used for request
// keying: the name joined with the document after collapsing whitespace
// runs, so reformatting the document does not change identity.
func (o *Operation) Identity() string {
	return o.Name + "\n" + strings.Join(strings.Fields(o.Document), " ")
}

func inferKind(document string) OperationKind {
	doc := strings.TrimSpace(document)
	switch {
	case strings.HasPrefix(doc, string(KindMutation)):
		return KindMutation
	case strings.HasPrefix(doc, string(KindSubscription)):
		return KindSubscription
	default:
		return KindQuery
	}
}
