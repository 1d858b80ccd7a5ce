package gql

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/Abraxas-365/gqlx/pkg/errx"
	"github.com/Abraxas-365/gqlx/pkg/fsx"
)

// Upload is a file attached to a request's variables. Transports that
// understand uploads stream Content to the wire; in the JSON view of
// the variables an upload always encodes as null, which is what
// multipart servers expect in the operations field.
//
// Content is consumed once. If it also implements io.Closer the
// transport closes it after the request body is written.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// NewUpload creates an upload from an open reader
func NewUpload(filename string, content io.Reader) *Upload {
	return &Upload{
		Filename:    filename,
		ContentType: contentTypeFor(filename),
		Content:     content,
	}
}

// OpenUpload opens a local file as an upload. The caller owns nothing:
// the transport closes the file once the body is written.
func OpenUpload(path string) (*Upload, *errx.Error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrRequestFormat("cannot open upload file").
			WithDetail("path", path).
			WithDetail("error", err.Error())
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ErrRequestFormat("cannot stat upload file").
			WithDetail("path", path).
			WithDetail("error", err.Error())
	}

	return &Upload{
		Filename:    filepath.Base(path),
		ContentType: contentTypeFor(path),
		Size:        info.Size(),
		Content:     f,
	}, nil
}

// UploadFromFS opens a file from any fsx reader as an upload
func UploadFromFS(ctx context.Context, fs fsx.FileReader, path string) (*Upload, *errx.Error) {
	info, err := fs.Stat(ctx, path)
	if err != nil {
		return nil, ErrRequestFormat("cannot stat upload file").
			WithDetail("path", path).
			WithDetail("error", err.Error())
	}

	rc, err := fs.ReadFileStream(ctx, path)
	if err != nil {
		return nil, ErrRequestFormat("cannot open upload file").
			WithDetail("path", path).
			WithDetail("error", err.Error())
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = contentTypeFor(info.Name)
	}

	return &Upload{
		Filename:    info.Name,
		ContentType: contentType,
		Size:        info.Size,
		Content:     rc,
	}, nil
}

// MarshalJSON encodes the upload as JSON null. File content never
// belongs in the JSON body; multipart transports send it as a separate
// part keyed by the upload's path in the variables.
func (u *Upload) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// Close releases the underlying content reader when it is closable
func (u *Upload) Close() error {
	if c, ok := u.Content.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
