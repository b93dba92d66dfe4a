package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

const TesseractBinary = "tesseract"

// TesseractEngine runs the local tesseract binary and reads the text from stdout.
type TesseractEngine struct {
	Binary   string
	Language string
	Logger   *zap.SugaredLogger
}

func NewTesseractEngine(binary, language string, logger *zap.SugaredLogger) *TesseractEngine {
	return &TesseractEngine{
		Binary:   binary,
		Language: language,
		Logger:   logger,
	}
}

func (e *TesseractEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.Binary, imagePath, "stdout", "-l", e.Language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("tesseract interrupted: %w", ctxErr)
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	e.Logger.Debugw("tesseract finished", "bytes", stdout.Len())
	return stdout.String(), nil
}
