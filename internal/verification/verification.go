// Package verification checks a refund claim against the receipt screenshot:
// image -> OCR -> extraction -> matching -> verdict.
package verification

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/db"
	"github.com/jayjaytrn/refund-desk/internal/extract"
	"github.com/jayjaytrn/refund-desk/internal/matcher"
	"github.com/jayjaytrn/refund-desk/internal/ocr"
	"github.com/jayjaytrn/refund-desk/internal/scratch"
	"github.com/jayjaytrn/refund-desk/internal/storage"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const sniffLen = 512

const (
	MessageScreenshotRequired = "Screenshot is required"
	MessageUnsupportedImage   = "Screenshot must be a jpg, jpeg or png image"
	MessageClaimsRequired     = "Order number and valid refund amount are required"
	MessageCouldNotVerify     = "Could not verify screenshot, please try again"
	MessageCouldNotStore      = "Could not store screenshot, please try again"
)

// Request carries one verification attempt. Image may be nil when the client sent none.
type Request struct {
	Image        io.Reader
	Filename     string
	OrderCode    string
	RefundAmount string
}

type Orchestrator struct {
	Database   db.Database
	Engine     ocr.Engine
	ScratchDir string
	OCRTimeout time.Duration
	Logger     *zap.SugaredLogger
}

func NewOrchestrator(database db.Database, engine ocr.Engine, scratchDir string, ocrTimeout time.Duration, logger *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		Database:   database,
		Engine:     engine,
		ScratchDir: scratchDir,
		OCRTimeout: ocrTimeout,
		Logger:     logger,
	}
}

// Verify returns a verdict whenever OCR ran; a mismatch is a verdict with
// Verified false, not an error. Errors are validation, missing order, or
// infrastructure failures. The scratch copy of the image is gone when Verify returns.
func (o *Orchestrator) Verify(ctx context.Context, req Request) (models.VerificationVerdict, models.ExpectedData, error) {
	var (
		verdict  models.VerificationVerdict
		expected models.ExpectedData
	)

	if req.Image == nil {
		return verdict, expected, apperrors.Validation(MessageScreenshotRequired)
	}
	image := bufio.NewReaderSize(req.Image, sniffLen)
	head, _ := image.Peek(sniffLen)
	ext, ok := storage.ImageExt(req.Filename, head)
	if !ok {
		return verdict, expected, apperrors.Validation(MessageUnsupportedImage)
	}

	code := strings.TrimSpace(req.OrderCode)
	amount, err := decimal.NewFromString(strings.TrimSpace(req.RefundAmount))
	if code == "" || err != nil || !amount.IsPositive() {
		return verdict, expected, apperrors.Validation(MessageClaimsRequired)
	}
	expected = models.ExpectedData{OrderNumber: code, Price: amount}

	if _, err = o.Database.GetOrderByCode(ctx, code); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return verdict, expected, apperrors.NotFound("order", code)
		}
		return verdict, expected, apperrors.Store("look up order", err)
	}

	text, err := o.recognize(ctx, ext, image)
	if err != nil {
		return verdict, expected, err
	}

	fields := extract.Extract(text, code)
	verdict = matcher.Match(fields.OrderCode, fields.Amount, code, amount)

	o.Logger.Infow("screenshot verified",
		"orderCode", code,
		"verified", verdict.Verified,
		"orderMatched", verdict.OrderMatched,
		"amountMatched", verdict.AmountMatched,
	)
	return verdict, expected, nil
}

// recognize stores the image in a scratch file owned by this call, runs OCR on
// it under the OCR timeout and drops the file once OCR is over.
func (o *Orchestrator) recognize(ctx context.Context, ext string, image io.Reader) (string, error) {
	var (
		text   string
		ocrErr error
	)

	err := scratch.With(o.ScratchDir, ext, image, func(path string) error {
		ocrCtx, cancel := o.withTimeout(ctx)
		defer cancel()
		text, ocrErr = o.Engine.Recognize(ocrCtx, path)
		return nil
	})
	if err != nil {
		return "", apperrors.Infrastructure("store screenshot", MessageCouldNotStore, err)
	}
	if ocrErr != nil {
		return "", apperrors.Infrastructure("recognize screenshot", MessageCouldNotVerify, ocrErr)
	}
	return text, nil
}

func (o *Orchestrator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.OCRTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.OCRTimeout)
}
