package runner

import (
	"bytes"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	snippetLen       = 512
)

// bodyText returns the text a "contains" assertion is matched against. HTML
// documents are reduced to their visible text; other bodies are used as is.
func bodyText(body string) string {
	raw := []byte(body)
	if len(raw) > maxHTMLBodyBytes {
		raw = raw[:maxHTMLBodyBytes]
	}
	if !isHTML(raw) {
		return string(raw)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	return firstNonEmpty(strings.TrimSpace(title+" "+text), string(raw))
}

func isHTML(raw []byte) bool {
	return strings.HasPrefix(http.DetectContentType(raw), "text/html")
}

func snippet(body string) string {
	s := strings.TrimSpace(body)
	if len(s) > snippetLen {
		cut := snippetLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut] + "..."
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// containsText matches needle against the raw body or, for HTML, its decoded text.
func containsText(body, needle string) bool {
	if strings.Contains(body, needle) {
		return true
	}
	return strings.Contains(bodyText(body), needle)
}
