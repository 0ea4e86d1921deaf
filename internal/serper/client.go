package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"articles/backend/internal/config"
)

const maxErrorBodyBytes = 8 * 1024
const maxQueryWords = 50

var ErrMissingAPIKey = errors.New("serper api key is not configured")

type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("serper returned %d: %s", e.StatusCode, e.Body)
}

type SearchResult struct {
	Link    string
	Title   string
	Snippet string
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type searchAPIRequest struct {
	Query string `json:"q"`
}

type searchAPIResponse struct {
	Organic []searchAPIResult `json:"organic"`
}

type searchAPIResult struct {
	Link     string `json:"link"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

func NewClient(cfg config.Config, httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.SearchTimeout}
	}
	return Client{
		apiKey:     strings.TrimSpace(cfg.SerperAPIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.SerperBaseURL), "/"),
		httpClient: httpClient,
	}
}

// Search returns organic results in the order the API ranked them.
// Entries are passed through untouched apart from whitespace trimming.
func (c Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	trimmedQuery := trimToWordLimit(strings.TrimSpace(query), maxQueryWords)
	if trimmedQuery == "" {
		return nil, nil
	}

	payload, err := json.Marshal(searchAPIRequest{Query: trimmedQuery})
	if err != nil {
		return nil, fmt.Errorf("marshal serper request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build serper request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request serper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var parsed searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		results = append(results, SearchResult{
			Link:    strings.TrimSpace(item.Link),
			Title:   strings.TrimSpace(item.Title),
			Snippet: strings.TrimSpace(item.Snippet),
		})
	}

	return results, nil
}

func trimToWordLimit(input string, maxWords int) string {
	if maxWords <= 0 {
		return ""
	}
	words := strings.Fields(strings.TrimSpace(input))
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ")
}
