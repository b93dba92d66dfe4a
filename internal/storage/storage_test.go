package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHead  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHead = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestImageExt(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		head     []byte
		ext      string
		ok       bool
	}{
		{"png", "receipt.PNG", pngHead, ".png", true},
		{"jpeg", "receipt.jpeg", jpegHead, ".jpeg", true},
		{"jpg", "receipt.jpg", jpegHead, ".jpg", true},
		{"gif extension", "receipt.gif", []byte("GIF89a"), "", false},
		{"png name jpeg bytes", "receipt.png", jpegHead, "", false},
		{"text posing as png", "receipt.png", []byte("hello"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := ImageExt(tt.filename, tt.head)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestLocalSave(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir, "/uploads/")

	url, err := store.Save(context.Background(), "Receipt.PNG", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))
}
