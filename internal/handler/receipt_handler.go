package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/middleware"
	"github.com/moneta-app/moneta-backend/internal/service"
)

// ReceiptHandler handles receipt image HTTP requests
type ReceiptHandler struct {
	sessions *service.SessionManager
	receipts *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(sessions *service.SessionManager, receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{sessions: sessions, receipts: receipts}
}

// ReceiptLinkResponse carries a short-lived download URL
type ReceiptLinkResponse struct {
	URL string `json:"url"`
}

// UploadReceipt godoc
// @Summary Upload a receipt image
// @Description Attach a receipt image to a transaction. Replaces any existing receipt.
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Param file formData file true "Receipt image (JPEG, PNG or WebP, max 5MB)"
// @Success 200 {object} domain.Transaction
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id}/receipt [post]
func (h *ReceiptHandler) UploadReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "A file is required"},
		})
	}
	if fileHeader.Size > service.MaxReceiptSize {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "File too large. Maximum size is 5MB"},
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return NewInternalError(c, "Failed to read uploaded file")
	}

	transaction, err := h.receipts.AttachReceipt(c.Request().Context(), userID, id, data, fileHeader.Filename)
	if err != nil {
		return receiptErrorResponse(c, err, "Failed to upload receipt")
	}

	// Keep the in-memory session in step with the new receipt path
	h.sessions.Session(userID).SetTransactionReceipt(transaction)

	log.Info().Str("transaction_id", id.String()).Msg("Receipt uploaded")
	return c.JSON(http.StatusOK, transaction)
}

// GetReceiptLink godoc
// @Summary Get a receipt download link
// @Description Get a short-lived presigned URL for a transaction's receipt
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} ReceiptLinkResponse
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id}/receipt [get]
func (h *ReceiptHandler) GetReceiptLink(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	url, err := h.receipts.ReceiptLink(c.Request().Context(), userID, id)
	if err != nil {
		return receiptErrorResponse(c, err, "Failed to generate receipt link")
	}

	return c.JSON(http.StatusOK, ReceiptLinkResponse{URL: url})
}

// DeleteReceipt godoc
// @Summary Delete a receipt
// @Description Remove the receipt image from a transaction
// @Tags receipts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} domain.Transaction
// @Failure 404 {object} ProblemDetails
// @Router /transactions/{id}/receipt [delete]
func (h *ReceiptHandler) DeleteReceipt(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.receipts.RemoveReceipt(c.Request().Context(), userID, id)
	if err != nil {
		return receiptErrorResponse(c, err, "Failed to delete receipt")
	}

	h.sessions.Session(userID).SetTransactionReceipt(transaction)

	return c.JSON(http.StatusOK, transaction)
}

func receiptErrorResponse(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrReceiptTooLarge):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "File too large. Maximum size is 5MB"},
		})
	case errors.Is(err, service.ErrInvalidFormat):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
		})
	case errors.Is(err, service.ErrReceiptTooSmall):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
		})
	case errors.Is(err, service.ErrInvalidImageData):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "The file is not a valid image"},
		})
	case errors.Is(err, service.ErrNoReceipt):
		return NewNotFoundError(c, "Transaction has no receipt")
	case errors.Is(err, domain.ErrTransactionNotFound):
		return NewNotFoundError(c, "Transaction not found")
	case errors.Is(err, service.ErrStorageNotConfigured):
		return NewInternalError(c, "Receipt storage is not configured")
	default:
		log.Error().Err(err).Msg(fallback)
		return NewInternalError(c, fallback)
	}
}
