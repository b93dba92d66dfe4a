// Package ocr talks to the external OCR engine that turns a receipt image into text.
package ocr

import (
	"context"
	"fmt"

	"github.com/jayjaytrn/refund-desk/config"
	"go.uber.org/zap"
)

// Engine recognises the text in the image stored at imagePath.
// Implementations must return once ctx is done.
type Engine interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// New picks the engine named in the configuration.
func New(cfg *config.Config, logger *zap.SugaredLogger) (Engine, error) {
	switch cfg.OCREngine {
	case config.OCREngineHTTP, "":
		return NewHTTPEngine(cfg.OCRServiceAddress, logger), nil
	case config.OCREngineTesseract:
		return NewTesseractEngine(TesseractBinary, "eng", logger), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
}
