package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	httputils "github.com/gitclock/agent/shared-lib/http"
	"github.com/gitclock/agent/shared-lib/http/auth"
)

// DefaultMaxFileSize bounds a download when no limit is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DownloadResult contains the fetched content and response metadata
type DownloadResult struct {
	Content      []byte
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
	StatusCode   int
}

// DownloadOptions provides configuration for content downloads
type DownloadOptions struct {
	Client      *http.Client      // HTTP client, http.DefaultClient when nil
	MaxFileSize int64             // Maximum content size (0 = DefaultMaxFileSize)
	Headers     map[string]string // Additional headers
}

// ErrFileTooLarge is returned when the content exceeds DownloadOptions.MaxFileSize.
var ErrFileTooLarge = fmt.Errorf("file exceeds maximum allowed size")

// DownloadContent fetches url into memory with a GET request.
func DownloadContent(ctx context.Context, url string, auth *auth.AuthConfig, options *DownloadOptions) (*DownloadResult, error) {
	if options == nil {
		options = &DownloadOptions{}
	}
	client := options.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxSize := options.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	req, err := httputils.NewGetRequest(ctx, url, auth, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	setDownloadHeaders(req)
	for key, value := range options.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := validateResponse(resp); err != nil {
		return nil, err
	}

	return readContent(resp, maxSize)
}

// validateResponse validates the HTTP response
func validateResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication failed: HTTP 401")
	case http.StatusForbidden:
		return fmt.Errorf("access forbidden: HTTP 403")
	case http.StatusNotFound:
		return fmt.Errorf("file not found: HTTP 404")
	default:
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
}

func readContent(resp *http.Response, maxSize int64) (*DownloadResult, error) {
	contentLength := resp.ContentLength
	if contentLengthStr := resp.Header.Get("Content-Length"); contentLengthStr != "" {
		if cl, err := strconv.ParseInt(contentLengthStr, 10, 64); err == nil {
			contentLength = cl
		}
	}
	if contentLength > maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d bytes", ErrFileTooLarge, contentLength, maxSize)
	}

	// one extra byte detects bodies without a Content-Length that overrun the limit
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, maxSize)
	}

	var lastModified time.Time
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := time.Parse(time.RFC1123, lm); err == nil {
			lastModified = t
		}
	}

	return &DownloadResult{
		Content:      content,
		Size:         int64(len(content)),
		ContentType:  resp.Header.Get("Content-Type"),
		LastModified: lastModified,
		ETag:         resp.Header.Get("ETag"),
		StatusCode:   resp.StatusCode,
	}, nil
}

// setDownloadHeaders sets appropriate headers for raw file downloads
func setDownloadHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/markdown, text/plain, */*")
	req.Header.Set("Accept-Encoding", "identity") // Request uncompressed content
}
