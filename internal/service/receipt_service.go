package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/repository/storage"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	DisplayWidth     = 800
	JPEGQuality      = 85

	// PresignExpiry bounds how long a generated receipt link stays valid
	PresignExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat        = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall      = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData     = errors.New("invalid image data")
	ErrStorageNotConfigured = errors.New("receipt storage not configured")
	ErrNoReceipt            = errors.New("transaction has no receipt")
)

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// ReceiptService handles receipt image processing and storage
type ReceiptService struct {
	storage         storage.ReceiptRepository
	transactionRepo domain.TransactionRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(storage storage.ReceiptRepository, transactionRepo domain.TransactionRepository) *ReceiptService {
	return &ReceiptService{storage: storage, transactionRepo: transactionRepo}
}

// IsEnabled indicates whether uploads are supported (storage configured)
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// validateAndDecode validates the receipt image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// AttachReceipt validates, resizes and uploads a receipt image, then records
// the display variant's object path on the transaction. An existing receipt
// is replaced.
func (s *ReceiptService) AttachReceipt(ctx context.Context, userID, transactionID uuid.UUID, data []byte, filename string) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
		{"original", 0}, // 0 means keep original size
	}

	uploaded := make(map[string]string)
	receiptID := uuid.New().String()

	for _, variant := range variants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		objectPath := fmt.Sprintf("%s/receipts/%s/%s_%s.jpg", userID, transactionID, receiptID, variant.name)
		path, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.cleanupVariants(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded[variant.name] = path
	}

	// Best effort removal of the replaced receipt's variants
	if tx.ReceiptURL != nil {
		s.deleteAllVariants(ctx, *tx.ReceiptURL)
	}

	displayPath := uploaded["display"]
	return s.transactionRepo.SetReceiptURL(userID, transactionID, &displayPath)
}

// ReceiptLink returns a short-lived presigned URL for a transaction's receipt
func (s *ReceiptService) ReceiptLink(ctx context.Context, userID, transactionID uuid.UUID) (string, error) {
	if !s.IsEnabled() {
		return "", ErrStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return "", err
	}
	if tx.ReceiptURL == nil {
		return "", ErrNoReceipt
	}

	return s.storage.GeneratePresignedURL(ctx, *tx.ReceiptURL, PresignExpiry)
}

// RemoveReceipt deletes all stored variants and clears the transaction's
// receipt path
func (s *ReceiptService) RemoveReceipt(ctx context.Context, userID, transactionID uuid.UUID) (*domain.Transaction, error) {
	if !s.IsEnabled() {
		return nil, ErrStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.ReceiptURL == nil {
		return nil, ErrNoReceipt
	}

	s.deleteAllVariants(ctx, *tx.ReceiptURL)
	return s.transactionRepo.SetReceiptURL(userID, transactionID, nil)
}

// cleanupVariants removes variants uploaded during a failed operation
func (s *ReceiptService) cleanupVariants(ctx context.Context, paths map[string]string) {
	for _, p := range paths {
		_ = s.storage.Delete(ctx, p)
	}
}

// deleteAllVariants removes thumb, display and original for a stored receipt.
// The stored path is the display variant; the siblings share its prefix.
func (s *ReceiptService) deleteAllVariants(ctx context.Context, displayPath string) {
	base := strings.TrimSuffix(displayPath, "_display.jpg")
	if base == displayPath {
		_ = s.storage.Delete(ctx, displayPath)
		return
	}
	for _, variant := range []string{"thumb", "display", "original"} {
		_ = s.storage.Delete(ctx, base+"_"+variant+".jpg")
	}
}
