package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/samvad-hq/restprobe/pkg/httpclient"
)

const (
	defaultTimeout = 30 * time.Second
	traceWidth     = 80
)

// Failure is the last recorded problem for a base URL.
type Failure struct {
	StatusCode int    `json:"status_code"`
	Method     string `json:"method"`
	Payload    string `json:"payload"`
}

// Client issues REST calls and records, per base URL, every call whose status
// did not match what the caller expected. Failures are never returned as
// errors; callers inspect the response body and the failure records.
type Client struct {
	transport httpclient.Client
	trace     io.Writer
	log       Logger

	mu          sync.Mutex
	counter     int
	failures    map[string]Failure
	lastBaseURL string
	lastMethod  string
	lastStatus  int
	lastErr     error
	lastFailure *Failure
}

// Option configures a Client.
type Option func(*Client)

// WithTraceWriter sets where verbose traces are written. Defaults to stdout.
func WithTraceWriter(w io.Writer) Option {
	return func(c *Client) {
		if w != nil {
			c.trace = w
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

// CallOption tweaks a single call.
type CallOption func(*callConfig)

type callConfig struct {
	verbose bool
}

// Verbose prints a diagnostic trace of the call to the trace writer.
func Verbose() CallOption {
	return func(cc *callConfig) { cc.verbose = true }
}

// VerboseIf is Verbose when on is true.
func VerboseIf(on bool) CallOption {
	return func(cc *callConfig) { cc.verbose = cc.verbose || on }
}

// New builds a Client over transport. A nil transport uses a resty client
// with a 30s timeout.
func New(transport httpclient.Client, opts ...Option) *Client {
	if transport == nil {
		transport = httpclient.NewRestyClient(defaultTimeout)
	}
	c := &Client{
		transport: transport,
		trace:     os.Stdout,
		log:       noopLogger{},
		failures:  make(map[string]Failure),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get sends a GET request. Non-empty data is appended to url as a query string.
func (c *Client) Get(ctx context.Context, headers map[string]string, url string, expect Expect, data Fields, opts ...CallOption) string {
	return c.send(ctx, appendQuery(url, data), headers, requestOptions{}, expect, opts)
}

// Post sends data form-encoded. When any value is a structured object it is
// JSON-rendered and the request is marked as JSON.
func (c *Client) Post(ctx context.Context, data Fields, headers map[string]string, url string, expect Expect, opts ...CallOption) string {
	fields, structured := encodeFields(data)
	o := requestOptions{post: true, postFields: fields, hasPostFields: true}
	if structured {
		o.httpHeader = []string{jsonHeader()}
	}
	return c.send(ctx, url, headers, o, expect, opts)
}

// Put sends data form-encoded. It never switches to JSON.
func (c *Client) Put(ctx context.Context, data Fields, headers map[string]string, url string, expect Expect, opts ...CallOption) string {
	fields, _ := encodeFields(data)
	o := requestOptions{customRequest: http.MethodPut, postFields: fields, hasPostFields: true}
	return c.send(ctx, url, headers, o, expect, opts)
}

// Patch behaves like Post with the PATCH method.
func (c *Client) Patch(ctx context.Context, data Fields, headers map[string]string, url string, expect Expect, opts ...CallOption) string {
	fields, structured := encodeFields(data)
	o := requestOptions{customRequest: http.MethodPatch, postFields: fields, hasPostFields: true}
	if structured {
		o.httpHeader = []string{jsonHeader()}
	}
	return c.send(ctx, url, headers, o, expect, opts)
}

// Delete sends a DELETE request. Non-empty data is appended as a query string.
func (c *Client) Delete(ctx context.Context, headers map[string]string, url string, expect Expect, data Fields, opts ...CallOption) string {
	o := requestOptions{customRequest: http.MethodDelete}
	return c.send(ctx, appendQuery(url, data), headers, o, expect, opts)
}

// Do dispatches by method name. Unknown methods are sent as a custom request
// with a form body.
func (c *Client) Do(ctx context.Context, method string, headers map[string]string, url string, expect Expect, data Fields, opts ...CallOption) string {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "", http.MethodGet:
		return c.Get(ctx, headers, url, expect, data, opts...)
	case http.MethodPost:
		return c.Post(ctx, data, headers, url, expect, opts...)
	case http.MethodPut:
		return c.Put(ctx, data, headers, url, expect, opts...)
	case http.MethodPatch:
		return c.Patch(ctx, data, headers, url, expect, opts...)
	case http.MethodDelete:
		return c.Delete(ctx, headers, url, expect, data, opts...)
	default:
		fields, _ := encodeFields(data)
		o := requestOptions{customRequest: strings.ToUpper(strings.TrimSpace(method)), postFields: fields, hasPostFields: len(data) > 0}
		return c.send(ctx, url, headers, o, expect, opts)
	}
}

func (c *Client) send(ctx context.Context, url string, headers map[string]string, o requestOptions, expect Expect, opts []CallOption) string {
	var cc callConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cc)
		}
	}
	if expect == nil {
		expect = Code(http.StatusOK)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := o.method()
	base := BaseURL(url)
	payload := o.render()

	c.mu.Lock()
	c.counter++
	c.lastBaseURL = base
	c.lastMethod = method
	c.lastStatus = 0
	c.lastErr = nil
	c.lastFailure = nil
	c.mu.Unlock()

	c.tracef(cc, "%s\n", strings.Repeat("=", traceWidth))
	c.tracef(cc, "Requesting %s via HTTP %s\n", base, method)

	resp, err := c.transport.Do(ctx, httpclient.Request{
		Method:          method,
		URL:             url,
		Headers:         o.headers(headers),
		Body:            o.postFields,
		FollowRedirects: true,
	})
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode()
		}
		c.tracef(cc, "Error!%s\n", err.Error())
		c.setLast(status, err)
		c.record(base, Failure{StatusCode: status, Method: method, Payload: payload})
		c.log.WarnObj("rest request failed", "rest_transport_error", map[string]any{
			"method":   method,
			"url":      url,
			"base_url": base,
			"status":   status,
			"error":    err.Error(),
		})
		if !expect.Matches(status) {
			c.tracef(cc, "Expected %s Received %d\n", expect, status)
		}
		c.tracef(cc, "%s\n", strings.Repeat("=", traceWidth))
		return ""
	}

	body := string(resp.Body())
	code := resp.StatusCode()
	c.setLast(code, nil)
	if expect.Matches(code) {
		c.tracef(cc, "Response Status OK for %s\n", base)
		c.log.DebugObj("rest request ok", "rest_response", map[string]any{
			"method":   method,
			"base_url": base,
			"status":   code,
		})
	} else {
		c.tracef(cc, "Expected %s Received %d\n", expect, code)
		c.tracef(cc, "%s\n", body)
		c.record(base, Failure{StatusCode: code, Method: method, Payload: payload})
		c.log.WarnObj("rest unexpected status", "rest_status_mismatch", map[string]any{
			"method":   method,
			"base_url": base,
			"expected": expect.String(),
			"status":   code,
		})
	}
	c.tracef(cc, "%s\n", strings.Repeat("=", traceWidth))

	return body
}

// record stores all three parts of a failure in one write.
func (c *Client) record(base string, f Failure) {
	c.mu.Lock()
	c.failures[base] = f
	c.lastFailure = &f
	c.mu.Unlock()
}

func (c *Client) setLast(status int, err error) {
	c.mu.Lock()
	c.lastStatus = status
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Client) tracef(cc callConfig, format string, args ...any) {
	if !cc.verbose || c.trace == nil {
		return
	}
	fmt.Fprintf(c.trace, format, args...)
}

// RequestCounter returns the number of requests attempted so far.
func (c *Client) RequestCounter() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counter
}

// Failures returns a copy of the failure records keyed by base URL.
func (c *Client) Failures() map[string]Failure {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Failure, len(c.failures))
	for k, v := range c.failures {
		out[k] = v
	}
	return out
}

// FailureFor returns the failure recorded for url's base URL, if any.
func (c *Client) FailureFor(url string) (Failure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.failures[BaseURL(url)]
	return f, ok
}

// RequestErrors maps base URL to the last observed status of a failed call.
func (c *Client) RequestErrors() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.failures))
	for k, v := range c.failures {
		out[k] = v.StatusCode
	}
	return out
}

// MethodErrors maps base URL to the method of the failed call.
func (c *Client) MethodErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.failures))
	for k, v := range c.failures {
		out[k] = v.Method
	}
	return out
}

// DataErrors maps base URL to the rendered request options of the failed call.
func (c *Client) DataErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.failures))
	for k, v := range c.failures {
		out[k] = v.Payload
	}
	return out
}

// LastBaseURL returns the base URL of the most recent call.
func (c *Client) LastBaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBaseURL
}

// LastMethod returns the method of the most recent call.
func (c *Client) LastMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMethod
}

// LastStatus returns the status code observed by the most recent call, or 0
// when the transport failed without a response.
func (c *Client) LastStatus() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

// LastErr returns the transport error of the most recent call, if any.
func (c *Client) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LastFailure returns the failure recorded by the most recent call. It reports
// false when that call matched its expectation, even if an earlier call to the
// same base URL failed.
func (c *Client) LastFailure() (Failure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFailure == nil {
		return Failure{}, false
	}
	return *c.lastFailure, true
}

// BaseURL strips everything from the first "?" onward.
func BaseURL(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i]
	}
	return url
}
