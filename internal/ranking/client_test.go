package ranking

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchReturnsMessage(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"1. Ana 42km","ranking":[{"name":"Ana"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	msg, err := c.Fetch(context.Background(), Weekly)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if msg != "1. Ana 42km" {
		t.Fatalf("unexpected message %q", msg)
	}
	if gotPath != "/ranking/weekly" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestFetchMonthlyPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"message":"mensal"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).Fetch(context.Background(), Monthly); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/ranking/monthly" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestFetchNon200IsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"db down"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Fetch(context.Background(), Weekly)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).Fetch(context.Background(), Weekly); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchMissingMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ranking":[]}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Fetch(context.Background(), Weekly)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewClient(url, nil).Fetch(context.Background(), Weekly); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestFetchUnknownPeriodMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, nil).Fetch(context.Background(), Period("daily")); err == nil {
		t.Fatal("expected error for unknown period")
	}
	if called {
		t.Fatal("no request expected for unknown period")
	}
}
