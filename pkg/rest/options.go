package rest

import (
	"net/http"
	"strings"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// requestOptions is the encoded option set handed to the transport. The
// recorded method name is derived from it rather than from the verb helper.
type requestOptions struct {
	post          bool
	customRequest string
	postFields    string
	hasPostFields bool
	httpHeader    []string
}

// method derives the logical HTTP method: POST flag, then custom override, then GET.
func (o requestOptions) method() string {
	m := http.MethodGet
	if o.post {
		m = http.MethodPost
	}
	if o.customRequest != "" {
		m = o.customRequest
	}
	return m
}

// render produces the "key: value" dump recorded alongside a failure.
func (o requestOptions) render() string {
	var b strings.Builder
	if o.post {
		b.WriteString("POST: true\n")
	}
	if o.customRequest != "" {
		b.WriteString("CUSTOMREQUEST: " + o.customRequest + "\n")
	}
	if o.hasPostFields {
		b.WriteString("POSTFIELDS: " + o.postFields + "\n")
	}
	if len(o.httpHeader) > 0 {
		b.WriteString("HTTPHEADER: " + strings.Join(o.httpHeader, ",") + "\n")
	}
	return b.String()
}

// headers merges caller headers with the headers implied by the options.
// Option headers win over caller headers; a form content type is only added
// when the caller did not choose one.
func (o requestOptions) headers(base map[string]string) map[string]string {
	out := make(map[string]string, len(base)+2)
	for k, v := range base {
		out[k] = v
	}
	for _, h := range o.httpHeader {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		setHeader(out, strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if o.hasPostFields && !hasHeader(out, "Content-Type") {
		out["Content-Type"] = contentTypeForm
	}
	return out
}

func setHeader(h map[string]string, name, value string) {
	for k := range h {
		if strings.EqualFold(k, name) {
			delete(h, k)
		}
	}
	h[name] = value
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func jsonHeader() string {
	return "Content-Type:" + contentTypeJSON
}
