// Package fsxlocal reads files from a directory on local disk,
// confined to a base path.
package fsxlocal

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/gqlx/pkg/fsx"
)

// Reader implements fsx.PathReader over a local directory. Paths are
// resolved relative to the base path and may not escape it.
type Reader struct {
	basePath string
}

var _ fsx.PathReader = (*Reader)(nil)

// New creates a reader rooted at basePath. The directory must exist.
func New(basePath string) (*Reader, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path is not a directory: %s", absPath)
	}

	return &Reader{basePath: absPath}, nil
}

// BasePath returns the resolved root directory.
func (r *Reader) BasePath() string {
	return r.basePath
}

func (r *Reader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (r *Reader) ReadFileStream(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

func (r *Reader) Stat(ctx context.Context, path string) (fsx.FileInfo, error) {
	fullPath, err := r.resolve(path)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fsx.FileInfo{}, fmt.Errorf("file not found: %s", path)
		}
		return fsx.FileInfo{}, fmt.Errorf("stat file: %w", err)
	}
	return toFileInfo(info), nil
}

func (r *Reader) List(ctx context.Context, path string) ([]fsx.FileInfo, error) {
	fullPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", path)
		}
		return nil, fmt.Errorf("list directory: %w", err)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, toFileInfo(info))
	}
	return infos, nil
}

func (r *Reader) Exists(ctx context.Context, path string) (bool, error) {
	fullPath, err := r.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *Reader) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// resolve joins path onto the base and rejects escapes via "..".
func (r *Reader) resolve(path string) (string, error) {
	fullPath := filepath.Join(r.basePath, path)
	if fullPath != r.basePath && !strings.HasPrefix(fullPath, r.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", path)
	}
	return fullPath, nil
}

func toFileInfo(info os.FileInfo) fsx.FileInfo {
	contentType := ""
	if !info.IsDir() {
		contentType = mime.TypeByExtension(filepath.Ext(info.Name()))
	}
	return fsx.FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		IsDir:       info.IsDir(),
		ContentType: contentType,
		Metadata:    map[string]string{},
	}
}
