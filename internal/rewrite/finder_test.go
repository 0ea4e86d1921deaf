package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"articles/backend/internal/serper"
)

type searcherStub struct {
	results []serper.SearchResult
	err     error
	calls   int
	queries []string
}

func (s *searcherStub) Search(_ context.Context, query string) ([]serper.SearchResult, error) {
	s.calls++
	s.queries = append(s.queries, query)
	return s.results, s.err
}

func resultsFor(links ...string) []serper.SearchResult {
	out := make([]serper.SearchResult, 0, len(links))
	for _, link := range links {
		out = append(out, serper.SearchResult{Link: link})
	}
	return out
}

func TestFinderSkipsSelfDomainEmptyAndNonHTTPLinks(t *testing.T) {
	searcher := &searcherStub{results: resultsFor(
		"https://beyondchats.com/blogs/chatbots",
		"",
		"ftp://files.example.com/a",
		"https://www.BeyondChats.com/other",
		"https://example.com/first",
		"http://example.org/second",
		"https://example.net/third",
	)}

	links, err := NewFinder(searcher, "beyondchats.com").Find(context.Background(), "Chatbots")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(links) != 2 || links[0] != "https://example.com/first" || links[1] != "http://example.org/second" {
		t.Fatalf("unexpected links: %v", links)
	}
	if searcher.queries[0] != "Chatbots" {
		t.Fatalf("unexpected query: %q", searcher.queries[0])
	}
}

func TestFinderNeverReturnsSelfDomainOrMoreThanTwo(t *testing.T) {
	for total := 0; total <= 6; total++ {
		links := make([]string, 0, total*2)
		for i := 0; i < total; i++ {
			links = append(links, fmt.Sprintf("https://beyondchats.com/p%d", i), fmt.Sprintf("https://site%d.example/p", i))
		}

		got, _ := NewFinder(&searcherStub{results: resultsFor(links...)}, "beyondchats.com").Find(context.Background(), "q")
		if len(got) > 2 {
			t.Fatalf("total=%d: expected at most 2 links, got %d", total, len(got))
		}
		for _, link := range got {
			if strings.Contains(link, "beyondchats.com") {
				t.Fatalf("total=%d: self-domain link returned: %s", total, link)
			}
		}
	}
}

func TestFinderReportsInsufficientResults(t *testing.T) {
	tests := []struct {
		name    string
		results []serper.SearchResult
		found   int
	}{
		{name: "zero raw results", results: nil, found: 0},
		{name: "one usable", results: resultsFor("https://beyondchats.com/a", "https://example.com/a"), found: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			links, err := NewFinder(&searcherStub{results: tc.results}, "beyondchats.com").Find(context.Background(), "q")
			if !HasKind(err, KindInsufficientResults) {
				t.Fatalf("expected insufficient results, got %v", err)
			}
			if len(links) != tc.found {
				t.Fatalf("expected %d partial links, got %v", tc.found, links)
			}
		})
	}
}

func TestFinderClassifiesSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{name: "missing key", err: serper.ErrMissingAPIKey, kind: KindConfig, status: http.StatusBadRequest},
		{name: "401", err: serper.APIError{StatusCode: 401, Body: "unauthorized"}, kind: KindAuth, status: http.StatusBadRequest},
		{name: "403", err: serper.APIError{StatusCode: 403, Body: "no credits"}, kind: KindQuotaOrConfig, status: http.StatusBadRequest},
		{name: "500", err: serper.APIError{StatusCode: 500, Body: "oops"}, kind: KindUpstream, status: http.StatusInternalServerError},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), kind: KindUpstream, status: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFinder(&searcherStub{err: tc.err}, "beyondchats.com").Find(context.Background(), "q")
			rewriteErr := AsError(err)
			if rewriteErr.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s (%v)", tc.kind, rewriteErr.Kind, err)
			}
			if rewriteErr.Status() != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rewriteErr.Status())
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected cause to be preserved, got %v", err)
			}
		})
	}
}

func TestFinderMissingKeyMessageNamesVariable(t *testing.T) {
	_, err := NewFinder(&searcherStub{err: serper.ErrMissingAPIKey}, "").Find(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "SERPER_API_KEY") {
		t.Fatalf("expected SERPER_API_KEY hint, got %v", err)
	}
}
