// Package storage keeps uploaded receipt images and hands back a retrievable URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type Storage interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Local writes files under Dir and serves them from BaseURL.
type Local struct {
	Dir     string
	BaseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{
		Dir:     dir,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (l *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	f, err := os.OpenFile(filepath.Join(l.Dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload: %w", err)
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if err = f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return l.BaseURL + "/" + name, nil
}

// Handler serves stored files under the BaseURL prefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(l.BaseURL+"/", http.FileServer(http.Dir(l.Dir)))
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageExt returns the lower-cased extension when filename names a supported
// image and head (the first bytes of the file) sniffs as that type.
func ImageExt(filename string, head []byte) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := imageTypes[ext]
	if !ok {
		return "", false
	}
	if http.DetectContentType(head) != want {
		return "", false
	}
	return ext, true
}
