/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: client.go
Description: Instrumented HTTP request client for HackBench. Wraps every call with
telemetry capture, hands each request to the replay recorder before dispatch, computes
the reflection signal over response bytes, and maps timeouts and connection failures to
a sentinel error result instead of raising past the caller.
*/

package execution

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kleascm/hackbench/pkg/core"
	"github.com/kleascm/hackbench/pkg/logging"
)

// DefaultUserAgent identifies the tool in request headers and stored entries.
const DefaultUserAgent = "HackBench/1.0 (+educational lab client)"

// maxBodySample bounds the body excerpt mirrored to the operational log.
const maxBodySample = 200

// Recorder receives every request snapshot before the request is dispatched.
type Recorder interface {
	Record(snap *core.RequestSnapshot) error
}

// Result carries everything a caller needs to classify one attempt. A network
// or protocol failure sets Err and leaves Response nil; the caller decides
// whether that is fatal.
type Result struct {
	Request  *core.RequestSnapshot
	Response *core.ResponseSnapshot
	Err      error
}

// Failed reports whether the call never produced a usable response.
func (r *Result) Failed() bool { return r.Err != nil || r.Response == nil }

// Client is the single HTTP gateway for a run. It shares one cookie jar with
// the auth manager so every call carries the current session.
type Client struct {
	http     *http.Client
	recorder Recorder
	logger   *logging.Logger
	timeout  time.Duration
}

// NewClient builds an instrumented client with its own cookie jar.
func NewClient(recorder Recorder, logger *logging.Logger, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		recorder: recorder,
		logger:   logger,
		timeout:  timeout,
	}, nil
}

// Get performs an instrumented GET with optional query parameters.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) *Result {
	full := rawURL
	if len(params) > 0 {
		u, err := url.Parse(rawURL)
		if err != nil {
			return &Result{Err: fmt.Errorf("invalid url %q: %w", rawURL, err)}
		}
		q := u.Query()
		for key, values := range params {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
		full = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return &Result{Err: fmt.Errorf("failed to build GET request: %w", err)}
	}
	return c.do(req, params, nil)
}

// PostForm performs an instrumented form POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values) *Result {
	body := form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return &Result{Err: fmt.Errorf("failed to build POST request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil, form)
}

// do snapshots, records, dispatches, and captures one request/response pair.
// The snapshot is handed to the recorder before dispatch so a recorded
// command always corresponds to exactly what was sent.
func (c *Client) do(req *http.Request, params, form url.Values) *Result {
	req.Header.Set("User-Agent", DefaultUserAgent)

	snap := &core.RequestSnapshot{
		ID:      uuid.New().String(),
		Time:    time.Now(),
		Method:  req.Method,
		URL:     req.URL.String(),
		Header:  req.Header.Clone(),
		Params:  params,
		Form:    form,
		Cookies: c.cookieHeader(req.URL),
	}
	if form != nil {
		snap.Body = form.Encode()
	}

	if c.recorder != nil {
		if err := c.recorder.Record(snap); err != nil {
			c.logger.Warning("Failed to record request for replay", map[string]interface{}{
				"request_id": snap.ID,
				"error":      err.Error(),
			})
		}
	}

	c.logger.LogRequest(snap.Method, snap.URL, map[string]interface{}{"request_id": snap.ID})

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("HTTP request failed", map[string]interface{}{
			"request_id": snap.ID,
			"elapsed":    elapsed,
			"error":      err.Error(),
		})
		return &Result{Request: snap, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Failed to read response body", map[string]interface{}{
			"request_id": snap.ID,
			"error":      err.Error(),
		})
		return &Result{Request: snap, Err: err}
	}

	body := string(bodyBytes)
	sample := body
	if len(sample) > maxBodySample {
		sample = sample[:maxBodySample]
	}
	c.logger.LogResponse(resp.StatusCode, elapsed, sample)

	return &Result{
		Request: snap,
		Response: &core.ResponseSnapshot{
			Status:  resp.StatusCode,
			Header:  resp.Header.Clone(),
			Body:    body,
			Elapsed: elapsed,
		},
	}
}

// cookieHeader renders the jar's cookies for the URL as a Cookie header value.
func (c *Client) cookieHeader(u *url.URL) string {
	if c.http.Jar == nil {
		return ""
	}
	cookies := c.http.Jar.Cookies(u)
	pairs := make([]string, 0, len(cookies))
	for _, cookie := range cookies {
		pairs = append(pairs, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(pairs, "; ")
}

// Cookie returns the named cookie's value for the target URL, or "".
func (c *Client) Cookie(rawURL, name string) string {
	u, err := url.Parse(rawURL)
	if err != nil || c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(u) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// UserAgent returns the User-Agent string attached to every request.
func (c *Client) UserAgent() string { return DefaultUserAgent }

// Reflects computes the reflection signal: whether the literal payload, or a
// canonicalized variant of it (HTML-entity-decoded, URL-decoded, case-folded),
// appears in the response body or any header value.
func Reflects(res *core.ResponseSnapshot, payload string) bool {
	if res == nil || payload == "" {
		return false
	}
	if strings.Contains(res.Body, payload) || res.HeaderValuesContain(payload) {
		return true
	}

	decoded := html.UnescapeString(res.Body)
	if strings.Contains(decoded, payload) {
		return true
	}
	if unescaped, err := url.QueryUnescape(res.Body); err == nil && strings.Contains(unescaped, payload) {
		return true
	}

	folded := strings.ToLower(decoded)
	return strings.Contains(folded, strings.ToLower(payload))
}
