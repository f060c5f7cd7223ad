// Package github is a small REST client for the two GitHub features we use:
// repository contents (history persistence) and issues (subscriber sign-ups).
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// ErrNotFound is returned when the requested file or issue does not exist.
var ErrNotFound = errors.New("github: not found")

// HTTPError carries the status of a failed API call.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("github api error (status %d): %s", e.Status, e.Body)
}

type Client struct {
	token      string
	owner      string
	repo       string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for repoName in "owner/repo" form.
func NewClient(token, repoName string) (*Client, error) {
	owner, repo, ok := strings.Cut(repoName, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("invalid repository name %q, want owner/repo", repoName)
	}
	return &Client{
		token:      token,
		owner:      owner,
		repo:       repo,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// Repo returns the "owner/repo" name the client talks to.
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

// ---------------- CONTENTS ----------------

type File struct {
	Path    string
	SHA     string
	Content []byte
}

type contentsResponse struct {
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type blobResponse struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile downloads a file from the repository. ref may be empty for the default branch.
func (c *Client) GetFile(ctx context.Context, path, ref string) (*File, error) {
	endpoint := c.repoURL("contents", path)
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	var resp contentsResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	//files over 1 MB come back with encoding "none" and no content; the blob API serves them
	content, encoding := resp.Content, resp.Encoding
	if encoding == "none" || (content == "" && resp.Size > 0) {
		blob, err := c.getBlob(ctx, resp.SHA)
		if err != nil {
			return nil, fmt.Errorf("fetch blob of %s: %w", path, err)
		}
		content, encoding = blob.Content, blob.Encoding
	}
	if encoding != "" && encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	raw, err := decodeContent(content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &File{Path: resp.Path, SHA: resp.SHA, Content: raw}, nil
}

func (c *Client) getBlob(ctx context.Context, sha string) (*blobResponse, error) {
	if sha == "" {
		return nil, errors.New("missing blob sha")
	}
	var blob blobResponse
	if err := c.do(ctx, http.MethodGet, c.repoURL("git", "blobs", sha), nil, &blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// decodeContent decodes base64 the API wraps at 60 columns.
func decodeContent(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.ReplaceAll(s, "\n", ""))
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putContentsResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// PutFile creates or updates a file. sha must be the current blob SHA when updating.
// It returns the SHA of the new blob.
func (c *Client) PutFile(ctx context.Context, path, branch, message string, content []byte, sha string) (string, error) {
	body := putContentsRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  branch,
	}
	var resp putContentsResponse
	if err := c.do(ctx, http.MethodPut, c.repoURL("contents", path), body, &resp); err != nil {
		return "", err
	}
	return resp.Content.SHA, nil
}

// ---------------- ISSUES ----------------

type Issue struct {
	ID        int64     `json:"id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}

const issuesPerPage = 100

// ListOpenIssues returns open issues carrying the given label, following pages
// until a short page comes back.
func (c *Client) ListOpenIssues(ctx context.Context, label string) ([]Issue, error) {
	q := url.Values{}
	q.Set("state", "open")
	if label != "" {
		q.Set("labels", label)
	}
	q.Set("per_page", strconv.Itoa(issuesPerPage))

	var all []Issue
	for page := 1; ; page++ {
		q.Set("page", strconv.Itoa(page))
		var issues []Issue
		if err := c.do(ctx, http.MethodGet, c.repoURL("issues")+"?"+q.Encode(), nil, &issues); err != nil {
			return nil, err
		}
		all = append(all, issues...)
		if len(issues) < issuesPerPage {
			return all, nil
		}
	}
}

type IssuePatch struct {
	State  string   `json:"state,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Body   string   `json:"body,omitempty"`
}

// UpdateIssue edits an issue identified by its number.
func (c *Client) UpdateIssue(ctx context.Context, number int, patch IssuePatch) error {
	return c.do(ctx, http.MethodPatch, c.repoURL("issues", fmt.Sprint(number)), patch, nil)
}

func (c *Client) repoURL(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
			escaped = append(escaped, url.PathEscape(seg))
		}
	}
	return fmt.Sprintf("%s/repos/%s/%s/%s", c.baseURL, c.owner, c.repo, strings.Join(escaped, "/"))
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
