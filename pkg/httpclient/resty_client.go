package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const maxRedirects = 10

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client     *resty.Client
	noRedirect *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	follow := newRestyBaseClient(timeout)
	follow.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))

	strict := newRestyBaseClient(timeout)
	strict.SetRedirectPolicy(resty.NoRedirectPolicy())

	return &RestyClient{client: follow, noRedirect: strict}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// SetUserAgent sets the User-Agent sent when the caller does not provide one.
func (r *RestyClient) SetUserAgent(ua string) *RestyClient {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return r
	}
	r.client.SetHeader("User-Agent", ua)
	r.noRedirect.SetHeader("User-Agent", ua)
	return r
}

// Do performs the described request. A partial response is returned with the
// error when resty produced one, so the caller can still read its status.
func (r *RestyClient) Do(ctx context.Context, req Request) (Response, error) {
	c := r.client
	if !req.FollowRedirects {
		c = r.noRedirect
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	rr := c.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		rr.SetHeaders(req.Headers)
	}
	if req.Body != "" {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(method, req.URL)
	if err != nil {
		if resp != nil && resp.RawResponse != nil {
			return &restyResponseAdapter{resp: resp}, err
		}
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.Do(ctx, Request{
		Method:          http.MethodGet,
		URL:             url,
		Headers:         headers,
		FollowRedirects: true,
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
