package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/restprobe/internal/config"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		" warn ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitSetsPackageLogger(t *testing.T) {
	log, err := Init(&config.Config{LogLevel: "error"})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if log == nil || S == nil {
		t.Fatalf("expected logger to be initialized")
	}
	log.DebugObj("dropped", "k", 1)
	InfoObj("package helper", "k", map[string]any{"a": 1})
}

func TestNopLoggerSatisfiesInterface(t *testing.T) {
	var log Logger = &NopLogger{}
	log.InfoObj("x", "y", nil)
	log.ErrorObj("x", "y", nil)
}
