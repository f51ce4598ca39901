// Package client implements the HTTP API client for the GophDrive server.
// It keeps the session token obtained at login and attaches it to every
// subsequent request via the auth-token header.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// authTokenHeaderName must match the header the server reads.
const authTokenHeaderName = "auth-token"

// FileInfo is one entry of the server's file listing.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New constructs a client for the server at baseURL, e.g.
// "http://127.0.0.1:8080".
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// IsLoggedIn reports whether a session token is held.
func (c *Client) IsLoggedIn() bool {
	return c.token != ""
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set(authTokenHeaderName, c.token)
	}
	return req, nil
}

// checkStatus turns a non-200 response into an *APIError built from the
// server's {"message","id"} payload.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
	}
	return apiErr
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register creates a new account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/register", nil, credentials{Login: username, Password: password})
	if err != nil {
		return fmt.Errorf("register request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Login authenticates and stores the returned session token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/login", nil, credentials{Login: username, Password: password})
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	var body struct {
		AuthToken string `json:"auth-token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decoding login response: %w", err)
	}
	c.token = body.AuthToken
	return nil
}

// Logout revokes the session server-side and drops the local token. The
// token is dropped even if the request fails; the server sweeps expired
// tokens on its own.
func (c *Client) Logout(ctx context.Context) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	defer func() { c.token = "" }()

	resp, err := c.doJSON(ctx, http.MethodPost, "/logout", nil, nil)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Upload sends the file content as a multipart form.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("building multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("building multipart form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/file", url.Values{"filename": {filename}}, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Download fetches the file content.
func (c *Client) Download(ctx context.Context, filename string) ([]byte, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	resp, err := c.doJSON(ctx, http.MethodGet, "/file", url.Values{"filename": {filename}}, nil)
	if err != nil {
		return nil, fmt.Errorf("download request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Rename changes a file's name.
func (c *Client) Rename(ctx context.Context, oldFilename, newFilename string) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}

	resp, err := c.doJSON(ctx, http.MethodPut, "/file", url.Values{"filename": {oldFilename}},
		map[string]string{"name": newFilename})
	if err != nil {
		return fmt.Errorf("rename request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Delete removes a file.
func (c *Client) Delete(ctx context.Context, filename string) error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}

	resp, err := c.doJSON(ctx, http.MethodDelete, "/file", url.Values{"filename": {filename}}, nil)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// List returns the file listing. A negative limit asks for everything.
func (c *Client) List(ctx context.Context, limit int) ([]FileInfo, error) {
	if !c.IsLoggedIn() {
		return nil, ErrNotLoggedIn
	}

	var query url.Values
	if limit >= 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	resp, err := c.doJSON(ctx, http.MethodGet, "/list", query, nil)
	if err != nil {
		return nil, fmt.Errorf("list request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var items []FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	return items, nil
}
