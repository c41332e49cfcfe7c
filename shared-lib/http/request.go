package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gitclock/agent/shared-lib/http/auth"
)

const (
	userAgent    = "gitclock-agent/1.0"
	acceptHeader = "application/vnd.github+json, application/json, text/plain, */*"
)

// NewGetRequest creates a GET request with authentication and query parameters
func NewGetRequest(ctx context.Context, url string, auth *auth.AuthConfig, queryParams map[string]interface{}) (*http.Request, error) {
	finalURL, err := buildURLWithParams(url, queryParams)
	if err != nil {
		return nil, fmt.Errorf("failed to build URL with parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	if err := applyAuthentication(req, auth); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	setDefaultHeaders(req)

	return req, nil
}

// NewPostRequest creates a POST request with authentication and body
func NewPostRequest(ctx context.Context, url string, auth *auth.AuthConfig, body interface{}, contentType string) (*http.Request, error) {
	return newRequestWithBody(ctx, http.MethodPost, url, auth, body, contentType)
}

// NewPutRequest creates a PUT request with authentication and body
func NewPutRequest(ctx context.Context, url string, auth *auth.AuthConfig, body interface{}, contentType string) (*http.Request, error) {
	return newRequestWithBody(ctx, http.MethodPut, url, auth, body, contentType)
}

func newRequestWithBody(ctx context.Context, method, url string, auth *auth.AuthConfig, body interface{}, contentType string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		var err error
		bodyReader, err = prepareRequestBody(body, contentType)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	} else if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := applyAuthentication(req, auth); err != nil {
		return nil, fmt.Errorf("failed to apply authentication: %w", err)
	}
	setDefaultHeaders(req)

	return req, nil
}

func buildURLWithParams(baseURL string, queryParams map[string]interface{}) (string, error) {
	if len(queryParams) == 0 {
		return baseURL, nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	query := parsedURL.Query()
	for key, value := range queryParams {
		if value != nil {
			query.Add(key, fmt.Sprintf("%v", value))
		}
	}

	parsedURL.RawQuery = query.Encode()
	return parsedURL.String(), nil
}

func prepareRequestBody(body interface{}, contentType string) (io.Reader, error) {
	switch {
	case strings.Contains(contentType, "application/json") || contentType == "":
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON body: %w", err)
		}
		return bytes.NewReader(jsonData), nil

	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		if formData, ok := body.(map[string]string); ok {
			values := url.Values{}
			for key, value := range formData {
				values.Set(key, value)
			}
			return strings.NewReader(values.Encode()), nil
		}
		return nil, fmt.Errorf("form data must be map[string]string")

	case strings.Contains(contentType, "text/plain"):
		if text, ok := body.(string); ok {
			return strings.NewReader(text), nil
		}
		return nil, fmt.Errorf("plain text body must be string")

	default:
		switch v := body.(type) {
		case []byte:
			return bytes.NewReader(v), nil
		case string:
			return strings.NewReader(v), nil
		default:
			return nil, fmt.Errorf("unsupported body type %T for content type %s", body, contentType)
		}
	}
}

func applyAuthentication(req *http.Request, authReq *auth.AuthConfig) error {
	if authReq == nil {
		return nil
	}

	switch authReq.Type {
	case auth.AuthTypeNone:
		return nil

	case auth.AuthTypeBasic:
		if authReq.Username == "" || authReq.Password == "" {
			return fmt.Errorf("username and password required for basic authentication")
		}
		req.SetBasicAuth(authReq.Username, authReq.Password)

	case auth.AuthTypeBearer:
		if authReq.Token == "" {
			return fmt.Errorf("token required for bearer authentication")
		}
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", authReq.Token))

	default:
		return fmt.Errorf("unsupported authentication type: %s", authReq.Type)
	}

	return nil
}

func setDefaultHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
}
