package validation

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/dealfolio/backend/src/logger"
)

// AllowedReceiptContentTypes is a map for quick lookup of allowed
// client-declared MIME types for receipt uploads.
var AllowedReceiptContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
	// Generic fallback from some mobile clients; the magic-byte check below
	// decides whether the content is actually acceptable.
	"application/octet-stream": true,
}

// ValidateReceiptContentType checks the Content-Type header provided by the client.
func ValidateReceiptContentType(contentType string) error {
	normalized := strings.ToLower(strings.Split(contentType, ";")[0])
	if !AllowedReceiptContentTypes[normalized] {
		logger.L.Warn("Disallowed client-declared Content-Type for receipt", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed for receipt upload", contentType)
	}
	return nil
}

// ValidateReceiptContentByMagicBytes checks the actual file content signature
// (magic bytes). It returns the detected content type and an error when the
// content is not an image or a PDF.
func ValidateReceiptContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the caller can store the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	detectedContentType := strings.ToLower(strings.Split(http.DetectContentType(buffer[:n]), ";")[0])

	allowedDetectedTypes := map[string]bool{
		"image/jpeg":      true,
		"image/png":       true,
		"image/webp":      true,
		"application/pdf": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected receipt content type (magic bytes)", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected file content type '%s' is not an accepted receipt format", detectedContentType)
	}

	logger.L.Debug("Receipt content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
