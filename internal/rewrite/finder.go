package rewrite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"articles/backend/internal/serper"
)

const referencesNeeded = 2

type Searcher interface {
	Search(ctx context.Context, query string) ([]serper.SearchResult, error)
}

// Finder turns search results into candidate reference links.
type Finder struct {
	searcher   Searcher
	selfDomain string
}

func NewFinder(searcher Searcher, selfDomain string) Finder {
	return Finder{
		searcher:   searcher,
		selfDomain: strings.ToLower(strings.TrimSpace(selfDomain)),
	}
}

// Find returns exactly two links, in search order, that are absolute http(s)
// URLs outside the publisher's own domain.
func (f Finder) Find(ctx context.Context, query string) ([]string, error) {
	if f.searcher == nil {
		return nil, newError(KindConfig, "reference search is not configured; set SERPER_API_KEY", nil)
	}

	results, err := f.searcher.Search(ctx, query)
	if err != nil {
		return nil, classifySearchError(err)
	}

	links := make([]string, 0, referencesNeeded)
	for _, result := range results {
		if !f.acceptLink(result.Link) {
			continue
		}
		links = append(links, result.Link)
		if len(links) == referencesNeeded {
			break
		}
	}

	if len(links) < referencesNeeded {
		return links, newError(
			KindInsufficientResults,
			fmt.Sprintf("Insufficient reference articles found from search. Found %d links, need at least %d", len(links), referencesNeeded),
			nil,
		)
	}
	return links, nil
}

func (f Finder) acceptLink(link string) bool {
	lower := strings.ToLower(strings.TrimSpace(link))
	if lower == "" {
		return false
	}
	if f.selfDomain != "" && strings.Contains(lower, f.selfDomain) {
		return false
	}
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func classifySearchError(err error) *Error {
	if errors.Is(err, serper.ErrMissingAPIKey) {
		return newError(KindConfig, "SERPER_API_KEY is not set. Please set it in environment variables", err)
	}

	var apiErr serper.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return newError(KindAuth, "Search API rejected the credential. Check SERPER_API_KEY", err)
		case http.StatusForbidden:
			return newError(KindQuotaOrConfig, "Search API refused the request. Check SERPER_API_KEY quota and configuration", err)
		}
	}
	return newError(KindUpstream, "Failed to reach the search API", err)
}
