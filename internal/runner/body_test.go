package runner

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBodyTextExtractsVisibleHTML(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title> Dashboard </title><style>p{}</style></head>
<body><h1>Hello</h1>
<p>caf&eacute;   open</p><noscript>enable js</noscript></body></html>`
	got := bodyText(html)
	if got != "Dashboard Hello café open" {
		t.Fatalf("bodyText = %q", got)
	}
}

func TestBodyTextPassesThroughJSON(t *testing.T) {
	body := `{"status":"ok"}`
	if got := bodyText(body); got != body {
		t.Fatalf("bodyText = %q", got)
	}
}

func TestContainsText(t *testing.T) {
	html := `<html><body><p>caf&eacute;</p></body></html>`
	if !containsText(html, "café") {
		t.Fatalf("expected decoded match")
	}
	if !containsText(html, "&eacute;") {
		t.Fatalf("expected raw match")
	}
	if containsText(html, "tea") {
		t.Fatalf("unexpected match")
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("x", snippetLen+10)
	got := snippet(long)
	if len(got) != snippetLen+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("snippet length = %d", len(got))
	}
	if snippet("  short ") != "short" {
		t.Fatalf("short snippet should be trimmed")
	}
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	long := "a" + strings.Repeat("é", snippetLen)
	got := snippet(long)
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a rune: %q", got[len(got)-8:])
	}
	if !strings.HasSuffix(got, "...") || len(got) > snippetLen+3 {
		t.Fatalf("unexpected snippet length %d", len(got))
	}
}
