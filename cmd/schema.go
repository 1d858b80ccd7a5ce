package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/gqlx/pkg/errx"
)

// The fixture schema:
//
//	type Query {
//	  ping: String!
//	  echo(text: String!): String!
//	  slow(ms: Int!): Int!
//	}
//	type Mutation {
//	  upload(files: [UploadInput!]!): [FileReport!]!
//	}
//
// Documents are not parsed; a boundary check on the raw text decides
// which fields are selected, which is all a fixture needs.

func dispatch(ctx context.Context, req *wireRequest) (fiber.Map, []fiber.Map, *errx.Error) {
	doc := strings.TrimSpace(req.Query)
	switch {
	case strings.HasPrefix(doc, "mutation"):
		return dispatchMutation(req)
	case strings.HasPrefix(doc, "subscription"):
		return nil, []fiber.Map{fieldError(
			"subscriptions are not served over HTTP",
			"OPERATION_NOT_SUPPORTED",
		)}, nil
	default:
		return dispatchQuery(ctx, req)
	}
}

// ============================================================================
// Query Resolvers
// ============================================================================

func dispatchQuery(ctx context.Context, req *wireRequest) (fiber.Map, []fiber.Map, *errx.Error) {
	data := fiber.Map{}
	resolved := false

	if hasField(req.Query, "ping") {
		data["ping"] = "pong"
		resolved = true
	}

	if hasField(req.Query, "echo") {
		text, ok := req.Variables["text"].(string)
		if !ok {
			return nil, []fiber.Map{fieldError(
				"echo requires a text variable",
				"BAD_USER_INPUT",
			)}, nil
		}
		data["echo"] = text
		resolved = true
	}

	if hasField(req.Query, "slow") {
		ms, ok := intVariable(req.Variables, "ms")
		if !ok {
			return nil, []fiber.Map{fieldError(
				"slow requires an ms variable",
				"BAD_USER_INPUT",
			)}, nil
		}
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-ctx.Done():
			// The client tore the connection down mid-sleep.
			return nil, nil, errx.Wrap(ctx.Err(), "request aborted mid-execution", errx.TypeInternal)
		}
		data["slow"] = ms
		resolved = true
	}

	if !resolved {
		return nil, []fiber.Map{unknownField(req.Query)}, nil
	}
	return data, nil, nil
}

// ============================================================================
// Mutation Resolvers
// ============================================================================

func dispatchMutation(req *wireRequest) (fiber.Map, []fiber.Map, *errx.Error) {
	if !hasField(req.Query, "upload") {
		return nil, []fiber.Map{unknownField(req.Query)}, nil
	}

	var files []*uploadedFile
	collectFiles(req.Variables, &files)
	if len(files) == 0 {
		return nil, []fiber.Map{fieldError(
			"upload requires at least one attached file",
			"BAD_USER_INPUT",
		)}, nil
	}

	reports := make([]fiber.Map, 0, len(files))
	for _, f := range files {
		sum := sha256.Sum256(f.Content)
		reports = append(reports, fiber.Map{
			"name":   f.Name,
			"size":   f.Size,
			"sha256": hex.EncodeToString(sum[:]),
		})
	}
	return fiber.Map{"upload": reports}, nil, nil
}

// collectFiles gathers every reattached file in the variables, maps in
// sorted key order so reports come out in the same order the client
// indexed the parts.
func collectFiles(v any, out *[]*uploadedFile) {
	switch node := v.(type) {
	case *uploadedFile:
		*out = append(*out, node)
	case map[string]any:
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectFiles(node[k], out)
		}
	case []any:
		for _, item := range node {
			collectFiles(item, out)
		}
	}
}

// ============================================================================
// Helpers
// ============================================================================

// hasField reports whether the document selects the given field,
// checking word boundaries so "ping" does not match "pingping".
func hasField(doc, name string) bool {
	for start := 0; ; {
		i := strings.Index(doc[start:], name)
		if i == -1 {
			return false
		}
		i += start
		j := i + len(name)
		beforeOK := i == 0 || isBoundary(doc[i-1])
		afterOK := j == len(doc) || isBoundary(doc[j]) || doc[j] == '('
		if beforeOK && afterOK {
			return true
		}
		start = j
	}
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '{', '}', ',':
		return true
	}
	return false
}

func intVariable(vars map[string]any, name string) (int, bool) {
	switch v := vars[name].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

func fieldError(message, code string) fiber.Map {
	return fiber.Map{
		"message":    message,
		"extensions": fiber.Map{"code": code},
	}
}

func unknownField(doc string) fiber.Map {
	return fiber.Map{
		"message": "Cannot query any field in this document",
		"extensions": fiber.Map{
			"code":     "GRAPHQL_VALIDATION_FAILED",
			"document": doc,
		},
	}
}
