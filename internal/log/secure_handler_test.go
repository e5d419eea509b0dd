package log

import (
	"bytes"
	"strings"
	"testing"
)

// TestSecureLoggerMasksSensitiveKeys tests that credential attribute
// keys are masked in output.
func TestSecureLoggerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		key   string
		value string
	}{
		{"cookie header", "cookie", "session=abc123"},
		{"authorization header", "Authorization", "Bearer xyz"},
		{"password", "password", "hunter2"},
		{"api key variant", "api_key", "k-123456"},
		{"keyword in key", "site_auth_token", "tok"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("fetch", tc.key, tc.value)

			out := buf.String()
			if strings.Contains(out, tc.value) {
				t.Errorf("output contains sensitive value %q: %s", tc.value, out)
			}
			if !strings.Contains(out, MaskValue) {
				t.Errorf("output missing mask marker: %s", out)
			}
		})
	}
}

// TestSecureLoggerMasksSensitiveValues tests value-pattern masking for
// non-sensitive keys.
func TestSecureLoggerMasksSensitiveValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		value string
	}{
		{"jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"},
		{"bearer", "Bearer abc.def"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"cookie pair", "session_id=deadbeef; theme=dark"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("fetch", "detail", tc.value)

			if !strings.Contains(buf.String(), MaskValue) {
				t.Errorf("value %q was not masked: %s", tc.value, buf.String())
			}
		})
	}
}

// TestSecureLoggerMasksURLCredentials tests that only the credential
// query value is masked while the URL stays readable.
func TestSecureLoggerMasksURLCredentials(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("screening", "url", "https://example.com/page?id=7&token=supersecret")

	out := buf.String()
	if strings.Contains(out, "supersecret") {
		t.Errorf("token value leaked: %s", out)
	}
	if !strings.Contains(out, "example.com/page") {
		t.Errorf("URL host/path should stay readable: %s", out)
	}
}

// TestSecureLoggerPreservesNormalAttrs tests that ordinary attributes
// pass through unchanged.
func TestSecureLoggerPreservesNormalAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("screened", "url", "https://example.com", "risk_score", 40)

	out := buf.String()
	if !strings.Contains(out, "https://example.com") {
		t.Errorf("plain URL was modified: %s", out)
	}
	if !strings.Contains(out, "risk_score=40") {
		t.Errorf("numeric attr missing: %s", out)
	}
}

// TestSecureLoggerLevels tests the verbose flag to level mapping.
func TestSecureLoggerLevels(t *testing.T) {
	t.Parallel()

	t.Run("non-verbose suppresses debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewSecureLogger(&buf, false).Debug("noise")
		if buf.Len() != 0 {
			t.Errorf("debug output should be suppressed: %s", buf.String())
		}
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		NewSecureLogger(&buf, true).Debug("detail")
		if buf.Len() == 0 {
			t.Error("debug output should be emitted in verbose mode")
		}
	})
}

// TestSecureJSONLogger tests JSON output with masking.
func TestSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)
	logger.Info("fetch", "cookie", "session=abc")

	out := buf.String()
	if strings.Contains(out, "session=abc") {
		t.Errorf("cookie leaked in JSON output: %s", out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON output, got: %s", out)
	}
}
