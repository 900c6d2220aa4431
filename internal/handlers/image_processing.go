package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
)

// extractText stands in for OCR. It decodes the image header and reports
// what it found so the client's upload path can be exercised end to end.
func (h *Handler) extractText(fileData []byte, filename string) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(fileData))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	slog.Info("Image received", "filename", filename, "format", format, "width", cfg.Width, "height", cfg.Height)
	return fmt.Sprintf("Image %s\nFormat: %s\nSize: %dx%d", filename, format, cfg.Width, cfg.Height), nil
}
