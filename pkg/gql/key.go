package gql

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

// Key returns the request's deduplication key: a stable hex digest over
// the operation identity and the canonical encoding of the variables.
// Two requests with the same operation and equal variables always
// produce the same key, regardless of the order variables were set in,
// and requests that differ anywhere in the variable tree never share a
// key. The full digest is used; keys are never truncated.
func (r *Request) Key() (string, *errx.Error) {
	if r == nil || r.Operation == nil {
		return "", ErrRequestFormat("request has no operation")
	}

	vars, err := canonicalVariables(r.Variables)
	if err != nil {
		return "", ErrRequestFormat("variables are not encodable").
			WithDetail("error", err.Error())
	}

	h := sha256.New()
	h.Write([]byte(r.Operation.Identity()))
	h.Write([]byte{0})
	h.Write(vars)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalVariables produces a byte-stable encoding of the variable
// map. encoding/json writes map keys in sorted order at every level,
// which is exactly the order independence the key needs.
func canonicalVariables(vars map[string]any) ([]byte, error) {
	if len(vars) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(vars)
}
