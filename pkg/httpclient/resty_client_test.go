package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("X-Content-Type", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "landed")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRestyClientDoSendsBodyAndHeaders(t *testing.T) {
	srv := newEchoServer(t)
	c := NewRestyClient(5 * time.Second).SetUserAgent("probe-test")

	resp, err := c.Do(context.Background(), Request{
		Method:          "patch",
		URL:             srv.URL + "/echo",
		Headers:         map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:            "a=1&b=2",
		FollowRedirects: true,
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode() != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if string(resp.Body()) != "a=1&b=2" {
		t.Fatalf("body = %q", resp.Body())
	}
	raw := resp.(*restyResponseAdapter).resp.Header()
	if raw.Get("X-Method") != http.MethodPatch {
		t.Fatalf("method = %q", raw.Get("X-Method"))
	}
	if raw.Get("X-Agent") != "probe-test" {
		t.Fatalf("user agent = %q", raw.Get("X-Agent"))
	}
	if raw.Get("X-Content-Type") != "application/x-www-form-urlencoded" {
		t.Fatalf("content type = %q", raw.Get("X-Content-Type"))
	}
}

func TestRestyClientNon2xxIsNotAnError(t *testing.T) {
	srv := newEchoServer(t)
	c := NewRestyClient(5 * time.Second)

	resp, err := c.Get(context.Background(), srv.URL+"/missing", nil)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode())
	}
}

func TestRestyClientRedirectPolicies(t *testing.T) {
	srv := newEchoServer(t)
	c := NewRestyClient(5 * time.Second)

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/moved", FollowRedirects: true})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || string(resp.Body()) != "landed" {
		t.Fatalf("redirect not followed: %d %q", resp.StatusCode(), resp.Body())
	}

	resp, err = c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/moved"})
	if err == nil {
		t.Fatalf("expected redirect to be refused")
	}
	if resp == nil || resp.StatusCode() != http.StatusFound {
		t.Fatalf("expected partial 302 response, got %#v", resp)
	}
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewRestyClient(time.Second)
	resp, err := c.Get(context.Background(), url, nil)
	if err == nil {
		t.Fatalf("expected error for closed server")
	}
	if resp != nil {
		t.Fatalf("expected no response, got %#v", resp)
	}
}
