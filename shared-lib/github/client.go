package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gitclock/agent/shared-lib/file"
	httputils "github.com/gitclock/agent/shared-lib/http"
	"github.com/gitclock/agent/shared-lib/http/auth"
)

const (
	DefaultBaseURL = "https://api.github.com"
	reposPageSize  = 100
	jsonMediaType  = "application/json"
)

// ErrNotFound matches any *APIError carrying HTTP 404.
var ErrNotFound = errors.New("resource not found")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github api error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("github api error: HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Repository is the subset of the repository resource the agent reads.
type Repository struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
}

// ContentEntry is one item of a directory listing.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	DownloadURL string `json:"download_url"`
	Type        string `json:"type"`
}

// PutFileRequest creates a file when SHA is empty and updates it otherwise.
// Content holds the raw bytes; encoding happens on the wire.
type PutFileRequest struct {
	Message string
	Content []byte
	SHA     string
}

type putFileBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type createRepoBody struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
}

// Client talks to the repository hosting REST API with a bearer token.
type Client struct {
	baseURL    string
	auth       *auth.AuthConfig
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client. The default carries no timeout.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("access token cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		auth:       auth.Bearer(token),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// CurrentUser returns the login of the token owner.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	var user struct {
		Login string `json:"login"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/user", nil, &user); err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("current user response carries no login")
	}
	return user.Login, nil
}

// ListUserRepos returns every repository of the token owner, following pages
// until a short page is returned.
func (c *Client) ListUserRepos(ctx context.Context) ([]Repository, error) {
	repos := make([]Repository, 0)
	for page := 1; ; page++ {
		var batch []Repository
		params := map[string]interface{}{"per_page": reposPageSize, "page": page}
		if err := c.getJSON(ctx, c.baseURL+"/user/repos", params, &batch); err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		repos = append(repos, batch...)
		if len(batch) < reposPageSize {
			return repos, nil
		}
	}
}

// CreateRepo creates a repository owned by the token owner.
func (c *Client) CreateRepo(ctx context.Context, name string, private bool) error {
	req, err := httputils.NewPostRequest(ctx, c.baseURL+"/user/repos", c.auth, createRepoBody{Name: name, Private: private}, jsonMediaType)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to create repository %s: %w", name, err)
	}
	return nil
}

// ListContents lists the root directory of owner/repo.
func (c *Client) ListContents(ctx context.Context, owner, repo string) ([]ContentEntry, error) {
	var entries []ContentEntry
	if err := c.getJSON(ctx, c.repoURL(owner, repo, "contents"), nil, &entries); err != nil {
		return nil, fmt.Errorf("failed to list contents of %s/%s: %w", owner, repo, err)
	}
	return entries, nil
}

// Download fetches the raw content behind a download url.
func (c *Client) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	result, err := file.DownloadContent(ctx, downloadURL, c.auth, &file.DownloadOptions{Client: c.httpClient})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", downloadURL, err)
	}
	return result.Content, nil
}

// PutFile creates or updates path in owner/repo.
func (c *Client) PutFile(ctx context.Context, owner, repo, path string, request PutFileRequest) error {
	body := putFileBody{
		Message: request.Message,
		Content: base64.StdEncoding.EncodeToString(request.Content),
		SHA:     request.SHA,
	}
	req, err := httputils.NewPutRequest(ctx, c.repoURL(owner, repo, "contents", path), c.auth, body, jsonMediaType)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func (c *Client) repoURL(owner, repo string, segments ...string) string {
	parts := []string{c.baseURL, "repos", url.PathEscape(owner), url.PathEscape(repo)}
	for _, segment := range segments {
		for _, part := range strings.Split(segment, "/") {
			parts = append(parts, url.PathEscape(part))
		}
	}
	return strings.Join(parts, "/")
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params map[string]interface{}, out interface{}) error {
	req, err := httputils.NewGetRequest(ctx, endpoint, c.auth, params)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(statusCode int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
	}
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}
	return &APIError{StatusCode: statusCode, Message: message}
}
