package handlers

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/storage"
	"github.com/jayjaytrn/refund-desk/internal/verification"
	"github.com/jayjaytrn/refund-desk/models"
)

const multipartMemory = 4 << 20

// parseMultipart bounds the body by MaxUploadBytes. It reports false after writing the response.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxUploadBytes)
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeMessage(w, http.StatusRequestEntityTooLarge, "upload is too large")
		return false
	}
	h.Logger.Debugw("invalid multipart form", "error", err, "path", r.URL.Path)
	writeMessage(w, http.StatusBadRequest, "invalid multipart form")
	return false
}

// formImage returns the optional image part; a nil reader means the client sent none.
func formImage(r *http.Request, field string) (io.ReadCloser, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", apperrors.Validation("invalid %s upload", field)
	}
	return file, header.Filename, nil
}

// saveImage checks that the upload really is a supported image before it reaches storage.
func (h *Handler) saveImage(ctx context.Context, image io.Reader, filename string) (string, error) {
	head := bufio.NewReaderSize(image, 512)
	peeked, _ := head.Peek(512)
	ext, ok := storage.ImageExt(filename, peeked)
	if !ok {
		return "", apperrors.Validation(verification.MessageUnsupportedImage)
	}

	url, err := h.Storage.Save(ctx, "receipt"+ext, head)
	if err != nil {
		return "", apperrors.Infrastructure("save upload", verification.MessageCouldNotStore, err)
	}
	return url, nil
}

// Upload stores a receipt image and returns where it can be fetched from.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	file, filename, err := formImage(r, "screenshot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if file == nil {
		writeMessage(w, http.StatusBadRequest, verification.MessageScreenshotRequired)
		return
	}
	defer file.Close()

	url, err := h.saveImage(r.Context(), file, filename)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UploadResponse{Success: true, URL: url})
}
