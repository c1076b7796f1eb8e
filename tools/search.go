package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tool"
)

// SearchResult is one hit returned by a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// SearchService answers free-text web queries.
type SearchService interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

const tavilyBaseURL = "https://api.tavily.com"

// TavilyClient implements SearchService against the Tavily search API.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logging.Logger
}

// NewTavilyClient creates a Tavily-backed search client.
func NewTavilyClient(apiKey string, logger logging.Logger) *TavilyClient {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &TavilyClient{
		baseURL:    tavilyBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *TavilyClient) WithBaseURL(baseURL string) *TavilyClient {
	c.baseURL = baseURL
	return c
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []SearchResult `json:"results"`
}

// Search runs one query and returns up to maxResults hits.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	payload, err := json.Marshal(tavilyRequest{APIKey: c.apiKey, Query: query, MaxResults: maxResults})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(data))
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	c.logger.Debug("search completed", "query", query, "results", len(result.Results))
	return result.Results, nil
}

// NewWebSearchTool exposes web search to the model.
func NewWebSearchTool(svc SearchService) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"web_search",
		"Search the web for current information and return the top results.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "Search query"},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			results, err := svc.Search(ctx, query, 5)
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return "No results found.", nil
			}

			var b strings.Builder
			for i, r := range results {
				if i > 0 {
					b.WriteString("\n\n")
				}
				fmt.Fprintf(&b, "%s (%s)\n%s", r.Title, r.URL, r.Content)
			}
			return b.String(), nil
		})
}
