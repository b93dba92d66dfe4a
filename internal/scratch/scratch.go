// Package scratch manages per-request temporary files.
package scratch

import (
	"fmt"
	"io"
	"os"
)

// With copies src into a fresh temporary file in dir, calls fn with its path
// and removes the file before returning, whatever fn or the copy did.
func With(dir, ext string, src io.Reader, fn func(path string) error) error {
	f, err := os.CreateTemp(dir, "receipt-*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create scratch file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err = io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}

	return fn(path)
}
