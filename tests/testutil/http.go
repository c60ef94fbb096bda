package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeniva/backend/internal/interfaces/http/dto"
)

// APIClient drives an http.Handler in process. It keeps the cookies the
// server sets and marks requests same-origin, the way a browser on the
// back office pages would, or sends a bearer token instead.
type APIClient struct {
	t       *testing.T
	handler http.Handler
	token   string
	cookies map[string]*http.Cookie
}

// NewAPIClient creates a client for handler
func NewAPIClient(t *testing.T, handler http.Handler) *APIClient {
	return &APIClient{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
}

// WithBearer returns a copy that authenticates with token instead of cookies
func (c *APIClient) WithBearer(token string) *APIClient {
	return &APIClient{t: c.t, handler: c.handler, token: token, cookies: map[string]*http.Cookie{}}
}

// Cookie returns the unescaped value of a server-set cookie
func (c *APIClient) Cookie(name string) string {
	ck, ok := c.cookies[name]
	if !ok {
		return ""
	}
	if v, err := url.QueryUnescape(ck.Value); err == nil {
		return v
	}
	return ck.Value
}

// Do sends body as JSON when non-nil
func (c *APIClient) Do(method, path string, body any) *APIResponse {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.Send(req)
}

// Send serves a prepared request with the client's credentials
func (c *APIClient) Send(req *http.Request) *APIResponse {
	c.t.Helper()

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if req.Header.Get("Sec-Fetch-Site") == "" {
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	}
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	for _, ck := range (&http.Response{Header: w.Header()}).Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return &APIResponse{t: c.t, Recorder: w}
}

// APIResponse is a served response decoded on demand
type APIResponse struct {
	t        *testing.T
	Recorder *httptest.ResponseRecorder
}

// Code returns the HTTP status
func (r *APIResponse) Code() int {
	return r.Recorder.Code
}

// Envelope decodes the standard response body
func (r *APIResponse) Envelope() dto.Response {
	r.t.Helper()

	var resp dto.Response
	require.NoError(r.t, json.Unmarshal(r.Recorder.Body.Bytes(), &resp),
		"Failed to parse response: %s", r.Recorder.Body.String())
	return resp
}

// RequireStatus fails the test unless the status is code
func (r *APIResponse) RequireStatus(code int) *APIResponse {
	r.t.Helper()
	require.Equal(r.t, code, r.Recorder.Code, r.Recorder.Body.String())
	return r
}

// AssertError checks status and error code of a failed call
func (r *APIResponse) AssertError(status int, code string) {
	r.t.Helper()

	assert.Equal(r.t, status, r.Recorder.Code, r.Recorder.Body.String())
	resp := r.Envelope()
	assert.False(r.t, resp.Success)
	if assert.NotNil(r.t, resp.Error) {
		assert.Equal(r.t, code, resp.Error.Code)
	}
}

// Location returns the redirect target of a 3xx response
func (r *APIResponse) Location() string {
	return r.Recorder.Header().Get("Location")
}

// DataAs decodes the data field of a successful response into T
func DataAs[T any](t *testing.T, r *APIResponse) T {
	t.Helper()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(r.Recorder.Body.Bytes(), &env), r.Recorder.Body.String())
	require.True(t, env.Success, r.Recorder.Body.String())

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to decode data: %s", string(env.Data))
	return out
}
