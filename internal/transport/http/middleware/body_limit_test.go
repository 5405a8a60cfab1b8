package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bodySink() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestBodyLimitCapsJSONBodies(t *testing.T) {
	wrapped := BodyLimit(16, 1024)(bodySink())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(strings.Repeat("a", 64)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized json body: got %d, want 413", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("tiny"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("small json body: got %d, want 200", rec.Code)
	}
}

func TestBodyLimitAllowsLargerMultipartBodies(t *testing.T) {
	wrapped := BodyLimit(16, 1024)(bodySink())

	req := httptest.NewRequest(http.MethodPost, "/employees/EMP001/documents/aadhar", strings.NewReader(strings.Repeat("a", 64)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("multipart body within upload limit: got %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/employees/EMP001/documents/aadhar", strings.NewReader(strings.Repeat("a", 2048)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("multipart body over upload limit: got %d, want 413", rec.Code)
	}
}

func TestBodyLimitIgnoresGet(t *testing.T) {
	wrapped := BodyLimit(16, 1024)(bodySink())

	req := httptest.NewRequest(http.MethodGet, "/employees", strings.NewReader(strings.Repeat("a", 64)))
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET body must not be limited: got %d", rec.Code)
	}
}
