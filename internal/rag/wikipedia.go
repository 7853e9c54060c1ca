package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coachrag/pkg/domain"
)

const defaultWikipediaBaseURL = "https://fr.wikipedia.org/w/api.php"

// WikipediaClient fetches plain-text page extracts from the MediaWiki API.
type WikipediaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWikipediaClient constructs a client. An empty baseURL selects the
// French Wikipedia API.
func NewWikipediaClient(baseURL string) *WikipediaClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	return &WikipediaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchExtract returns the plain-text extract of one page. A missing page
// yields empty text and no error so ingestion can skip it.
func (c *WikipediaClient) FetchExtract(ctx context.Context, title string) (string, string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("redirects", "1")
	params.Set("titles", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("wikipedia request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("wikipedia api error: %s", resp.Status)
	}

	var payload wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("wikipedia decode: %w", err)
	}
	for _, page := range payload.Query.Pages {
		if page.Missing {
			continue
		}
		if strings.TrimSpace(page.Extract) == "" {
			continue
		}
		return page.Extract, page.Title, nil
	}
	return "", "", nil
}

// WikipediaSource loads a fixed list of pages as documents. A page that
// fails to load is logged and skipped so one bad title cannot block a
// rebuild of everything else.
type WikipediaSource struct {
	client *WikipediaClient
	pages  []string
	logger *slog.Logger
}

// NewWikipediaSource builds a source over the configured page titles.
func NewWikipediaSource(client *WikipediaClient, pages []string, logger *slog.Logger) *WikipediaSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &WikipediaSource{client: client, pages: pages, logger: logger}
}

// Load fetches all configured pages.
func (s *WikipediaSource) Load() ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var docs []domain.Document
	for _, page := range s.pages {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		extract, title, err := s.client.FetchExtract(ctx, page)
		if err != nil {
			s.logger.Warn("skipping wikipedia page", "page", page, "error", err)
			continue
		}
		if extract == "" {
			s.logger.Warn("wikipedia page has no extract", "page", page)
			continue
		}
		docs = append(docs, domain.Document{
			Text: normalizeText(extract),
			Metadata: map[string]string{
				"source": "wikipedia",
				"title":  title,
				"url":    "https://fr.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_")),
			},
		})
	}
	return docs, nil
}

type wikipediaResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}
