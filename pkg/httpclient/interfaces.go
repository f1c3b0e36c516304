package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Request describes a single outbound call.
type Request struct {
	Method          string
	URL             string
	Headers         map[string]string
	Body            string
	FollowRedirects bool
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
// Non-2xx responses are not errors; an error means the exchange itself failed.
// Implementations may return a partial Response alongside an error.
type Client interface {
	Do(ctx context.Context, req Request) (Response, error)
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
