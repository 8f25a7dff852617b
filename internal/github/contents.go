package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// FileRef describes a file as stored in the repository. SHA is the content
// version token required to update or delete the file.
type FileRef struct {
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	Size    int64  `json:"size"`
	HTMLURL string `json:"html_url"`
}

// DirEntry is one item of a directory listing.
type DirEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

func (c *Client) contentsEndpoint(path string) string {
	return fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.repo, path)
}

// ListDir returns the entries of a directory on the configured branch.
func (c *Client) ListDir(ctx context.Context, path string) ([]DirEntry, error) {
	var entries []DirEntry
	endpoint := c.contentsEndpoint(path) + "?ref=" + url.QueryEscape(c.branch)
	if err := c.get(ctx, endpoint, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// stat returns the FileRef for path, or a KindNotFound error.
func (c *Client) stat(ctx context.Context, path string) (*FileRef, error) {
	var ref FileRef
	endpoint := c.contentsEndpoint(path) + "?ref=" + url.QueryEscape(c.branch)
	if err := c.get(ctx, endpoint, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// FileExists reports whether a file exists at path. A KindNotFound failure
// maps to (false, nil); every other failure propagates.
func (c *Client) FileExists(ctx context.Context, path string) (bool, error) {
	_, err := c.stat(ctx, path)
	if err != nil {
		if IsKind(err, KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type writeResponse struct {
	Content FileRef `json:"content"`
}

// UploadFile creates or updates the file at path with the given bytes.
//
// The existence check and the write are two separate API calls, so a
// concurrent external writer can still win the race; the API then rejects
// the stale content SHA and the failure surfaces as KindAPIError. Callers
// that want to retry must re-check existence first.
func (c *Client) UploadFile(ctx context.Context, path string, content []byte, message string) (*FileRef, error) {
	var sha string
	existing, err := c.stat(ctx, path)
	switch {
	case err == nil:
		sha = existing.SHA
	case IsKind(err, KindNotFound):
		// plain creation
	default:
		return nil, err
	}

	body := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     sha,
	}

	raw, err := c.Do(ctx, http.MethodPut, c.contentsEndpoint(path), body)
	if err != nil {
		return nil, err
	}

	var resp writeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Kind: KindAPIError, Message: "decode write response", err: err}
	}
	return &resp.Content, nil
}

// CreateFile writes a new text file at path without an existence check.
// Writes over an existing path fail with KindAPIError (missing SHA).
func (c *Client) CreateFile(ctx context.Context, path, content, message string) (*FileRef, error) {
	body := writeRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
		Branch:  c.branch,
	}

	raw, err := c.Do(ctx, http.MethodPut, c.contentsEndpoint(path), body)
	if err != nil {
		return nil, err
	}

	var resp writeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &APIError{Kind: KindAPIError, Message: "decode write response", err: err}
	}
	return &resp.Content, nil
}

// DeleteFile removes the file at path. sha must be the file's current
// content version token.
func (c *Client) DeleteFile(ctx context.Context, path, sha, message string) error {
	body := map[string]string{
		"message": message,
		"sha":     sha,
		"branch":  c.branch,
	}
	_, err := c.Do(ctx, http.MethodDelete, c.contentsEndpoint(path), body)
	return err
}
