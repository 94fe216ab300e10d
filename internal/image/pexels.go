package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	pexelsAPIURL  = "https://api.pexels.com/v1"
	pexelsTimeout = 30 * time.Second
)

// PexelsClient implements ImageSearcher for the Pexels API
type PexelsClient struct {
	apiKey     string
	httpClient *http.Client
	rateLimit  *rateLimiter
}

// pexelsSearchResponse represents the search API response
type pexelsSearchResponse struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Photos       []pexelsPhoto `json:"photos"`
}

// pexelsPhoto represents a photo in the response
type pexelsPhoto struct {
	ID              int          `json:"id"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	URL             string       `json:"url"`
	Photographer    string       `json:"photographer"`
	PhotographerURL string       `json:"photographer_url"`
	Alt             string       `json:"alt"`
	Src             pexelsSource `json:"src"`
}

// pexelsSource contains various size URLs
type pexelsSource struct {
	Original  string `json:"original"`
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Small     string `json:"small"`
	Tiny      string `json:"tiny"`
	Landscape string `json:"landscape"`
	Portrait  string `json:"portrait"`
}

// NewPexelsClient creates a new Pexels API client
func NewPexelsClient(apiKey string) (*PexelsClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Pexels API key is required")
	}

	return &PexelsClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: pexelsTimeout,
		},
		rateLimit: newRateLimiter(200), // 200 requests per hour on the free plan
	}, nil
}

// Search performs an image search on Pexels
func (p *PexelsClient) Search(ctx context.Context, opts *SearchOptions) ([]SearchResult, error) {
	p.rateLimit.wait()

	params := url.Values{}
	params.Set("query", opts.Query)
	params.Set("per_page", fmt.Sprintf("%d", opts.PerPage))
	params.Set("page", fmt.Sprintf("%d", opts.Page))

	if opts.Orientation == "horizontal" {
		params.Set("orientation", "landscape")
	} else if opts.Orientation == "vertical" {
		params.Set("orientation", "portrait")
	}

	reqURL := pexelsAPIURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Provider:     "pexels",
			RetryAfter:   3600,
			LimitPerHour: 200,
		}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &SearchError{
			Provider: "pexels",
			Code:     fmt.Sprintf("%d", resp.StatusCode),
			Message:  "Invalid API key",
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &SearchError{
			Provider: "pexels",
			Code:     fmt.Sprintf("%d", resp.StatusCode),
			Message:  string(body),
		}
	}

	var searchResp pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResp.Photos))
	for _, photo := range searchResp.Photos {
		results = append(results, SearchResult{
			ID:           fmt.Sprintf("%d", photo.ID),
			URL:          photo.Src.Large,
			ThumbnailURL: photo.Src.Tiny,
			Width:        photo.Width,
			Height:       photo.Height,
			Description:  photo.Alt,
			Attribution:  fmt.Sprintf("Photo by %s on Pexels", photo.Photographer),
			License:      "Pexels License",
			Source:       "pexels",
		})
	}

	return results, nil
}

// Download downloads an image from the given URL
func (p *PexelsClient) Download(ctx context.Context, imageURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// GetAttribution returns the required attribution text for an image
func (p *PexelsClient) GetAttribution(result *SearchResult) string {
	// Pexels asks for attribution where possible
	return result.Attribution
}

// Name returns the name of the search provider
func (p *PexelsClient) Name() string {
	return "pexels"
}
