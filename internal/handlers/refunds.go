package handlers

import (
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jayjaytrn/refund-desk/internal/apperrors"
	"github.com/jayjaytrn/refund-desk/internal/refund"
	"github.com/jayjaytrn/refund-desk/internal/verification"
	"github.com/jayjaytrn/refund-desk/models"
	"github.com/shopspring/decimal"
)

// VerifyScreenshot answers 200 whenever verification ran, verified or not.
func (h *Handler) VerifyScreenshot(w http.ResponseWriter, r *http.Request) {
	if !h.parseMultipart(w, r) {
		return
	}
	file, filename, err := formImage(r, "screenshot")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req := verification.Request{
		Filename:     filename,
		OrderCode:    r.FormValue("orderId"),
		RefundAmount: r.FormValue("refundAmount"),
	}
	if file != nil {
		defer file.Close()
		req.Image = file
	}

	verdict, expected, err := h.Verifier.Verify(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := models.VerificationResponse{
		Success:  true,
		Verified: verdict.Verified,
		Message:  verdict.Message,
		ExtractedData: models.ExtractedData{
			OrderNumber: verdict.ExtractedOrderCode,
			Price:       verdict.ExtractedAmount,
		},
	}
	if !verdict.Verified {
		resp.Expected = &expected
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitRefund accepts multipart (with an optional screenshot) or JSON.
func (h *Handler) SubmitRefund(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var (
		in       models.RefundSubmission
		image    io.ReadCloser
		filename string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if !h.parseMultipart(w, r) {
			return
		}
		var err error
		if in, err = submissionFromForm(r); err != nil {
			h.writeError(w, r, err)
			return
		}
		if image, filename, err = formImage(r, "screenshot"); err != nil {
			h.writeError(w, r, err)
			return
		}
		if image != nil {
			defer image.Close()
		}
	} else if !h.decodeJSON(w, r, &in) {
		return
	}

	if !in.Verified {
		h.writeError(w, r, apperrors.Validation(refund.MessageVerificationRequired))
		return
	}
	if image != nil {
		url, err := h.saveImage(r.Context(), image, filename)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.ScreenshotURL = url
	}

	created, err := h.Refunds.Submit(r.Context(), identity, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RefundResponse{
		Success: true,
		Message: "Refund request submitted successfully",
		Refund:  created,
	})
}

// submissionFromForm reads the multipart fields. Only the literal "true" counts as verified.
func submissionFromForm(r *http.Request) (models.RefundSubmission, error) {
	in := models.RefundSubmission{
		OrderCode:           r.FormValue("orderId"),
		Reason:              r.FormValue("reason"),
		ProductName:         r.FormValue("productName"),
		OriginalOrderDate:   r.FormValue("originalOrderDate"),
		CustomerName:        r.FormValue("customerName"),
		MediatorName:        r.FormValue("mediatorName"),
		VerificationMessage: r.FormValue("verificationMessage"),
		Verified:            r.FormValue("verified") == "true",
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("refundAmount")))
	if err != nil {
		return in, apperrors.Validation("refundAmount must be a number")
	}
	in.RefundAmount = amount

	if code := strings.TrimSpace(r.FormValue("extractedOrderId")); code != "" {
		in.ExtractedOrderCode = &code
	}
	if price := strings.TrimSpace(r.FormValue("extractedPrice")); price != "" {
		p, err := decimal.NewFromString(price)
		if err != nil {
			return in, apperrors.Validation("extractedPrice must be a number")
		}
		in.ExtractedAmount = &p
	}
	return in, nil
}

func (h *Handler) UserRefunds(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	refunds, err := h.Refunds.ListForUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RefundsResponse{Success: true, Refunds: refunds})
}

func (h *Handler) AllRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.Refunds.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RefundsResponse{Success: true, Refunds: refunds})
}

func (h *Handler) ApproveRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, models.RefundApproved)
}

func (h *Handler) RejectRefund(w http.ResponseWriter, r *http.Request) {
	h.decideRefund(w, r, models.RefundRejected)
}

func (h *Handler) decideRefund(w http.ResponseWriter, r *http.Request, status models.RefundStatus) {
	decided, err := h.Refunds.Decide(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RefundResponse{Success: true, Message: "Refund " + status.String(), Refund: decided})
}

func (h *Handler) UpdateRefund(w http.ResponseWriter, r *http.Request) {
	var update models.RefundUpdate
	if !h.decodeJSON(w, r, &update) {
		return
	}

	updated, err := h.Refunds.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.RefundResponse{Success: true, Refund: updated})
}
