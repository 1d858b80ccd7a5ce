package main

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/logx"
)

// wireRequest is one GraphQL call in its wire form, shared by all three
// transport shapes the server accepts.
type wireRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// uploadedFile is a multipart part reattached into the variables.
type uploadedFile struct {
	Name    string
	Size    int64
	Content []byte
}

// ============================================================================
// POST /graphql
// ============================================================================

func graphqlPostHandler(c *fiber.Ctx) error {
	contentType := c.Get(fiber.HeaderContentType)
	switch {
	case strings.HasPrefix(contentType, fiber.MIMEMultipartForm):
		return handleMultipart(c)
	case strings.HasPrefix(contentType, fiber.MIMEApplicationJSON):
		return handleJSON(c)
	default:
		return errx.Validation("unsupported content type").
			WithDetail("content_type", contentType)
	}
}

func handleJSON(c *fiber.Ctx) error {
	var req wireRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return errx.Validation("request body is not valid JSON").
			WithDetail("error", err.Error())
	}
	return execute(c, &req)
}

// handleMultipart undoes the client's multipart encoding: parse the
// operations and map fields, then put each file part back at its dotted
// path inside the variables.
func handleMultipart(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errx.Validation("malformed multipart form").
			WithDetail("error", err.Error())
	}

	operations := firstValue(form.Value, "operations")
	if operations == "" {
		return errx.Validation("multipart form is missing the operations field")
	}
	rawMap := firstValue(form.Value, "map")
	if rawMap == "" {
		return errx.Validation("multipart form is missing the map field")
	}

	var req wireRequest
	if err := json.Unmarshal([]byte(operations), &req); err != nil {
		return errx.Validation("operations field is not valid JSON").
			WithDetail("error", err.Error())
	}

	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(rawMap), &fileMap); err != nil {
		return errx.Validation("map field is not valid JSON").
			WithDetail("error", err.Error())
	}

	for index, paths := range fileMap {
		headers := form.File[index]
		if len(headers) == 0 {
			return errx.Validation("map references a part that is not in the form").
				WithDetail("index", index)
		}
		file, ferr := readPart(headers[0])
		if ferr != nil {
			return ferr
		}
		for _, path := range paths {
			if aerr := attachAtPath(req.Variables, path, file); aerr != nil {
				return aerr
			}
		}
	}

	return execute(c, &req)
}

func firstValue(values map[string][]string, key string) string {
	if vs := values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readPart(header *multipart.FileHeader) (*uploadedFile, *errx.Error) {
	f, err := header.Open()
	if err != nil {
		return nil, errx.Validation("cannot open multipart part").
			WithDetail("filename", header.Filename).
			WithDetail("error", err.Error())
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, errx.Validation("cannot read multipart part").
			WithDetail("filename", header.Filename).
			WithDetail("error", err.Error())
	}

	return &uploadedFile{
		Name:    header.Filename,
		Size:    int64(len(content)),
		Content: content,
	}, nil
}

// attachAtPath walks a dotted path like variables.input.files.0.file
// through the variables and replaces the leaf with the file.
func attachAtPath(vars map[string]any, path string, file *uploadedFile) *errx.Error {
	segments := strings.Split(path, ".")
	if len(segments) < 2 || segments[0] != "variables" {
		return errx.Validation("file path must start with variables.").
			WithDetail("path", path)
	}

	var current any = vars
	for i, seg := range segments[1:] {
		last := i == len(segments[1:])-1
		switch node := current.(type) {
		case map[string]any:
			if last {
				node[seg] = file
				return nil
			}
			next, ok := node[seg]
			if !ok {
				return badPath(path, seg)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return badPath(path, seg)
			}
			if last {
				node[idx] = file
				return nil
			}
			current = node[idx]
		default:
			return badPath(path, seg)
		}
	}
	return badPath(path, "")
}

func badPath(path, segment string) *errx.Error {
	return errx.Validation("file path does not match the variables structure").
		WithDetail("path", path).
		WithDetail("segment", segment)
}

// ============================================================================
// GET /graphql
// ============================================================================

func graphqlGetHandler(c *fiber.Ctx) error {
	req := wireRequest{
		Query:         c.Query("query"),
		OperationName: c.Query("operationName"),
	}
	if req.Query == "" {
		return errx.Validation("query parameter is required")
	}

	if raw := c.Query("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return errx.Validation("variables parameter is not valid JSON").
				WithDetail("error", err.Error())
		}
	}

	return execute(c, &req)
}

// ============================================================================
// Execution
// ============================================================================

func execute(c *fiber.Ctx, req *wireRequest) error {
	logx.WithFields(logx.Fields{
		"operation":  req.OperationName,
		"request_id": c.Get("X-Request-ID"),
	}).Debug("executing operation")

	data, gqlErrs, err := dispatch(c.Context(), req)
	if err != nil {
		return err
	}
	if len(gqlErrs) > 0 {
		return c.JSON(fiber.Map{"errors": gqlErrs})
	}
	return c.JSON(fiber.Map{"data": data})
}
