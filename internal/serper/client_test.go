package serper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"articles/backend/internal/config"
)

func TestSearchReturnsOrganicResultsInOrder(t *testing.T) {
	var receivedKey string
	var receivedBody string
	var receivedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedKey = r.Header.Get("X-API-KEY")
		receivedPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		receivedBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "organic": [
		    {"link":"https://example.com/b","title":"B","snippet":"Snippet B","position":1},
		    {"link":"  https://example.com/a ","title":"A","position":2},
		    {"title":"no link","position":3}
		  ]
		}`))
	}))
	defer server.Close()

	client := NewClient(config.Config{
		SerperAPIKey:  "serper-key",
		SerperBaseURL: server.URL,
	}, server.Client())

	results, err := client.Search(context.Background(), "  chatbot   customer support ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if receivedKey != "serper-key" {
		t.Fatalf("expected api key header, got %q", receivedKey)
	}
	if receivedPath != "/search" {
		t.Fatalf("unexpected path: %q", receivedPath)
	}
	if receivedBody != `{"q":"chatbot customer support"}` {
		t.Fatalf("unexpected body: %s", receivedBody)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Link != "https://example.com/b" || results[1].Link != "https://example.com/a" {
		t.Fatalf("unexpected order: %+v", results)
	}
	if results[2].Link != "" {
		t.Fatalf("expected empty link to pass through, got %q", results[2].Link)
	}
}

func TestSearchReturnsErrMissingAPIKey(t *testing.T) {
	client := NewClient(config.Config{
		SerperAPIKey:  "",
		SerperBaseURL: "https://google.serper.dev",
	}, nil)

	_, err := client.Search(context.Background(), "test")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSearchReturnsAPIErrorWithStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Not enough credits"}`))
	}))
	defer server.Close()

	client := NewClient(config.Config{
		SerperAPIKey:  "key",
		SerperBaseURL: server.URL,
	}, server.Client())

	_, err := client.Search(context.Background(), "test")
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "serper returned 403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestSearchEmptyQueryMakesNoRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(config.Config{SerperAPIKey: "key", SerperBaseURL: server.URL}, server.Client())
	results, err := client.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results != nil || called {
		t.Fatalf("expected no request for empty query, called=%v results=%v", called, results)
	}
}
