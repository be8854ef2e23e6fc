package httpapi

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	// query param ?log=debug
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	// shorthand query param ?log=1
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("shorthand query override failed: %v", got)
	}
	// header X-Log-Level
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
}

func TestLogEnd_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	defer func() { zlog = nil }()

	start := time.Now()
	// error level: successes are dropped, failures logged
	r := httptest.NewRequest("POST", "/update?log=error", nil)
	logEnd(r, "update", 200, start, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output for success at error level, got %q", buf.String())
	}
	logEnd(r, "update", 500, start, errors.New("boom"))
	if !strings.Contains(buf.String(), `"error":"boom"`) || !strings.Contains(buf.String(), `"op":"update"`) {
		t.Fatalf("missing error log: %q", buf.String())
	}

	buf.Reset()
	r = httptest.NewRequest("POST", "/check?log=info", nil)
	logEnd(r, "check", 200, start, nil)
	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("missing info log: %q", buf.String())
	}

	buf.Reset()
	r = httptest.NewRequest("POST", "/check?log=off", nil)
	logEnd(r, "check", 500, start, errors.New("ignored"))
	if buf.Len() != 0 {
		t.Fatalf("expected no output when off, got %q", buf.String())
	}
}
