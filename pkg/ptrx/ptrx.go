// Package ptrx provides pointer helpers for optional values.
//
// GraphQL input objects distinguish an absent field from an explicit
// null, so optional variables are modelled as pointers. These helpers
// keep the call sites readable:
//
//	vars := map[string]any{
//		"input": UpdateInput{
//			Name: ptrx.Ptr("new name"),
//			Bio:  nil, // leave untouched
//		},
//	}
package ptrx

// Ptr returns a pointer to the value passed in.
func Ptr[T any](v T) *T {
	return &v
}

// Value returns the value pointed to, or the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// ValueOr returns the value pointed to, or def when p is nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// Slice returns a slice of pointers to the values passed in.
func Slice[T any](vs []T) []*T {
	ps := make([]*T, len(vs))
	for i := range vs {
		ps[i] = &vs[i]
	}
	return ps
}

// ValueSlice returns the values pointed to, with nil entries becoming
// zero values.
func ValueSlice[T any](ps []*T) []T {
	vs := make([]T, len(ps))
	for i, p := range ps {
		vs[i] = Value(p)
	}
	return vs
}

// Map returns a map of pointers to the values passed in.
func Map[K comparable, T any](vs map[K]T) map[K]*T {
	ps := make(map[K]*T, len(vs))
	for k, v := range vs {
		ps[k] = Ptr(v)
	}
	return ps
}

// ValueMap returns the values pointed to, with nil entries becoming
// zero values.
func ValueMap[K comparable, T any](ps map[K]*T) map[K]T {
	vs := make(map[K]T, len(ps))
	for k, p := range ps {
		vs[k] = Value(p)
	}
	return vs
}

// Equal reports whether a and b are both nil or point to equal values.
func Equal[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
