package netx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type echo struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

func TestDoJSON(t *testing.T) {
	ctx := context.Background()

	t.Run("success round trip", func(t *testing.T) {
		var gotMethod, gotCT, gotAuth string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotAuth = r.Header.Get("Authorization")
			var in echo
			_ = json.NewDecoder(r.Body).Decode(&in)
			in.Identity = strings.ToUpper(in.Identity)
			_ = json.NewEncoder(w).Encode(in)
		}))
		defer ts.Close()

		var out echo
		err := DoJSON(ctx, ts.Client(), http.MethodPost, ts.URL, "tok", echo{Room: "r", Identity: "amina"}, &out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodPost {
			t.Fatalf("method = %q, want POST", gotMethod)
		}
		if gotCT != "application/json" {
			t.Fatalf("Content-Type = %q", gotCT)
		}
		if gotAuth != "Bearer tok" {
			t.Fatalf("Authorization = %q", gotAuth)
		}
		if out.Identity != "AMINA" || out.Room != "r" {
			t.Fatalf("unexpected response: %+v", out)
		}
	})

	t.Run("non-2xx -> StatusError", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		}))
		defer ts.Close()

		err := DoJSON(ctx, nil, http.MethodGet, ts.URL, "", nil, nil)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("want *StatusError, got %v", err)
		}
		if se.StatusCode != http.StatusForbidden || !strings.Contains(string(se.Body), "nope") {
			t.Fatalf("unexpected status error: %+v", se)
		}
	})

	t.Run("bad json response", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer ts.Close()

		var out echo
		err := DoJSON(ctx, nil, http.MethodGet, ts.URL, "", nil, &out)
		if err == nil || !strings.Contains(err.Error(), "decode response") {
			t.Fatalf("expected decode error, got %v", err)
		}
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		if err := DoJSON(ctx, nil, http.MethodGet, ts.URL, "", nil, nil); err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
