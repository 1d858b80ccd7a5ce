package gqlhttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/gql"
)

// ============================================================================
// Upload flattening
// ============================================================================

// Flatten walks a request body and returns every upload leaf keyed by
// its dotted path: map keys and slice indices joined with ".", so a
// body {"input": {"files": [{"file": <upload>}]}} yields the single
// path "input.files.0.file". The walk visits each position exactly
// once, so paths are unique and merging is plain union.
func Flatten(node any) map[string]*gql.Upload {
	files := make(map[string]*gql.Upload)
	flattenInto(files, node, "")
	return files
}

func flattenInto(files map[string]*gql.Upload, node any, path string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(files, child, joinPath(path, key))
		}
	case []any:
		for i, child := range v {
			flattenInto(files, child, joinPath(path, strconv.Itoa(i)))
		}
	case []*gql.Upload:
		for i, child := range v {
			flattenInto(files, child, joinPath(path, strconv.Itoa(i)))
		}
	case *gql.Upload:
		if v != nil {
			files[path] = v
		}
	}
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// ============================================================================
// Multipart body assembly
// ============================================================================

// buildMultipartBody assembles the wire body of an upload request:
// field "operations" carries the JSON body with every upload rendered
// as null at its path, field "map" assigns each part index its dotted
// path, then one part per upload follows, named by its index. Parts
// are ordered by sorted path so indices are deterministic.
func buildMultipartBody(operations []byte, files map[string]*gql.Upload) (*bytes.Buffer, string, *errx.Error) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fileMap := make(map[string][]string, len(paths))
	for i, p := range paths {
		fileMap[strconv.Itoa(i)] = []string{p}
	}
	mapJSON, err := json.Marshal(fileMap)
	if err != nil {
		return nil, "", gql.ErrRequestFormat("cannot encode multipart file map").
			WithDetail("error", err.Error())
	}

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField("operations", string(operations)); err != nil {
		return nil, "", gql.ErrRequestFormat("cannot write operations field").
			WithDetail("error", err.Error())
	}
	if err := w.WriteField("map", string(mapJSON)); err != nil {
		return nil, "", gql.ErrRequestFormat("cannot write map field").
			WithDetail("error", err.Error())
	}

	for i, p := range paths {
		up := files[p]
		if up.Content == nil {
			return nil, "", gql.ErrRequestFormat("upload has no content").
				WithDetail("path", p).
				WithDetail("filename", up.Filename)
		}

		part, err := w.CreatePart(partHeader(strconv.Itoa(i), up))
		if err != nil {
			return nil, "", gql.ErrRequestFormat("cannot create upload part").
				WithDetail("path", p).
				WithDetail("error", err.Error())
		}
		if _, err := io.Copy(part, up.Content); err != nil {
			up.Close()
			return nil, "", gql.ErrRequestFormat("cannot read upload content").
				WithDetail("path", p).
				WithDetail("error", err.Error())
		}
		up.Close()
	}

	if err := w.Close(); err != nil {
		return nil, "", gql.ErrRequestFormat("cannot finalize multipart body").
			WithDetail("error", err.Error())
	}
	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(name string, up *gql.Upload) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(name), quoteEscaper.Replace(up.Filename)))
	if up.ContentType != "" {
		h.Set("Content-Type", up.ContentType)
	}
	return h
}
