package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// HTTPEngine posts the image as multipart field "file" to {Address}/ocr and
// expects {"text": "..."} back.
type HTTPEngine struct {
	Address string
	Client  *http.Client
	Logger  *zap.SugaredLogger
}

type recognizeResponse struct {
	Text string `json:"text"`
}

func NewHTTPEngine(address string, logger *zap.SugaredLogger) *HTTPEngine {
	return &HTTPEngine{
		Address: strings.TrimRight(address, "/"),
		Client:  &http.Client{},
		Logger:  logger,
	}
}

func (e *HTTPEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	body, contentType, err := multipartImage(imagePath)
	if err != nil {
		return "", err
	}

	url := e.Address + "/ocr"
	e.Logger.Debugw("sending image to OCR service", "url", url, "image", filepath.Base(imagePath))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send OCR request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected OCR status code %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	return out.Text, nil
}

func multipartImage(imagePath string) (io.Reader, string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build OCR payload: %w", err)
	}
	if _, err = io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to build OCR payload: %w", err)
	}
	if err = mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build OCR payload: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}
