package backend

import (
    "bytes"
    "context"
    "encoding/json"
    "io"
    "net/http"
    "strings"
    "time"
)

// Client wraps the CRM backend REST API.  All methods are safe for
// concurrent use; the zero value is not usable, construct with NewClient.
type Client struct {
    base string
    http *http.Client
}

// NewClient builds a client for the backend at base (scheme://host[:port]).
// The timeout bounds each individual request; a timeout surfaces as a
// normal transient failure, not a special case.
func NewClient(base string, timeout time.Duration) *Client {
    return &Client{
        base: strings.TrimRight(base, "/"),
        http: &http.Client{Timeout: timeout},
    }
}

// errBody covers the error envelopes the backend emits.  Some endpoints use
// {"error": "..."} and others {"message": "...", "code": "..."}; both are
// accepted and folded into one shape.
type errBody struct {
    ErrorMsg string `json:"error"`
    Message  string `json:"message"`
    Code     string `json:"code"`
}

// do performs one request against the backend.  A non-nil token is sent as
// a bearer credential.  in is JSON-encoded as the body when non-nil; out is
// JSON-decoded from a 2xx response body when non-nil.  Any failure comes
// back as *Error.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
    var body io.Reader
    if in != nil {
        buf, err := json.Marshal(in)
        if err != nil {
            return &Error{Message: "encode request: " + err.Error()}
        }
        body = bytes.NewReader(buf)
    }

    req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
    if err != nil {
        return &Error{Message: "build request: " + err.Error()}
    }
    req.Header.Set("Accept", "application/json")
    if in != nil {
        req.Header.Set("Content-Type", "application/json")
    }
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }

    resp, err := c.http.Do(req)
    if err != nil {
        // Transport failure: no status, generic retryable message.  The
        // underlying error is kept out of the message so the UI never
        // shows dial/TLS internals.
        return &Error{Code: CodeNetwork, Message: "could not reach the server, please try again"}
    }
    defer resp.Body.Close()

    raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return &Error{Code: CodeNetwork, Message: "could not read the server response, please try again"}
    }

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        var eb errBody
        _ = json.Unmarshal(raw, &eb)
        msg := eb.Message
        if msg == "" {
            msg = eb.ErrorMsg
        }
        if msg == "" {
            msg = http.StatusText(resp.StatusCode)
        }
        return &Error{Status: resp.StatusCode, Code: eb.Code, Message: msg}
    }

    if out != nil && len(raw) > 0 {
        if err := json.Unmarshal(raw, out); err != nil {
            return &Error{Status: resp.StatusCode, Message: "malformed server response"}
        }
    }
    return nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
    return c.do(ctx, http.MethodGet, path, token, nil, out)
}

func (c *Client) post(ctx context.Context, path, token string, in, out any) error {
    return c.do(ctx, http.MethodPost, path, token, in, out)
}

func (c *Client) put(ctx context.Context, path, token string, in, out any) error {
    return c.do(ctx, http.MethodPut, path, token, in, out)
}

func (c *Client) delete(ctx context.Context, path, token string, out any) error {
    return c.do(ctx, http.MethodDelete, path, token, nil, out)
}
