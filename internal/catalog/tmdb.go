package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

var ErrNotFound = errors.New("title not found")

// TMDBClient proxies catalog lookups to The Movie Database API.
type TMDBClient struct {
	accessToken string
	httpClient  *http.Client
	retries     int
	retryDelay  time.Duration
}

func NewTMDBClient(accessToken string) *TMDBClient {
	return &TMDBClient{
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		retries:     3,
		retryDelay:  2 * time.Second,
	}
}

func (c *TMDBClient) fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u := tmdbBaseURL + path
	if params == nil {
		params = url.Values{}
	}
	params.Set("language", "en-US")
	u += "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.retries {
				select {
				case <-time.After(c.retryDelay):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			break
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			break
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode != http.StatusOK:
			return nil, fmt.Errorf("tmdb: unexpected status %d", resp.StatusCode)
		}

		return json.RawMessage(body), nil
	}

	return nil, fmt.Errorf("tmdb: failed after %d attempts: %w", c.retries, lastErr)
}

// Category fetches a listing like now_playing, popular, top_rated or upcoming.
// mediaType is "movie" or "tv".
func (c *TMDBClient) Category(ctx context.Context, mediaType, category string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", "1")
	return c.fetch(ctx, fmt.Sprintf("/%s/%s", mediaType, category), params)
}

func (c *TMDBClient) Details(ctx context.Context, mediaType string, id int64) (json.RawMessage, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/%d", mediaType, id), nil)
}

func (c *TMDBClient) Videos(ctx context.Context, mediaType string, id int64) (json.RawMessage, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/%d/videos", mediaType, id), nil)
}

func (c *TMDBClient) Credits(ctx context.Context, mediaType string, id int64) (json.RawMessage, error) {
	return c.fetch(ctx, fmt.Sprintf("/%s/%d/credits", mediaType, id), nil)
}

func (c *TMDBClient) Similar(ctx context.Context, mediaType string, id int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", "1")
	return c.fetch(ctx, fmt.Sprintf("/%s/%d/similar", mediaType, id), params)
}

func (c *TMDBClient) Recommendations(ctx context.Context, mediaType string, id int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("page", "1")
	return c.fetch(ctx, fmt.Sprintf("/%s/%d/recommendations", mediaType, id), params)
}

func (c *TMDBClient) SearchMulti(ctx context.Context, query string, page int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", fmt.Sprintf("%d", page))
	return c.fetch(ctx, "/search/multi", params)
}
