package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// MaxImageSize matches the backend's upload limit.
const MaxImageSize = 10 * 1024 * 1024

// Fetcher retrieves page images from local paths or http(s) URLs.
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load returns the bytes of the image at source and a file name for upload.
func (f *Fetcher) Load(ctx context.Context, source string) ([]byte, string, error) {
	if IsURL(source) {
		return f.download(ctx, source)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if info.Size() > MaxImageSize {
		return nil, "", fmt.Errorf("image too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, filepath.Base(source), nil
}

// ReadFile adapts Load to a plain path reader.
func (f *Fetcher) ReadFile(source string) ([]byte, error) {
	data, _, err := f.Load(context.Background(), source)
	return data, err
}

// IsURL reports whether source looks like an http(s) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// download fetches an image over HTTP
func (f *Fetcher) download(ctx context.Context, source string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imageData) > MaxImageSize {
		return nil, "", fmt.Errorf("image too large (over %d bytes)", MaxImageSize)
	}

	slog.Debug("Downloaded image", "url", source, "bytes", len(imageData), "content_type", resp.Header.Get("Content-Type"))
	return imageData, nameFromURL(source), nil
}

func nameFromURL(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
