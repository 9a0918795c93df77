package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("RAWG_API_KEY is not set")

// RawgGame is the subset of a RAWG game record the catalog keeps.
type RawgGame struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Released        string `json:"released"`
	BackgroundImage string `json:"background_image"`
	DescriptionRaw  string `json:"description_raw"`
	Platforms       []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type gamesPage struct {
	Count   int        `json:"count"`
	Next    string     `json:"next"`
	Results []RawgGame `json:"results"`
}

// Client talks to the RAWG games endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns ErrMissingAPIKey when apiKey is empty.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}, nil
}

// FetchGames loads one page of /games.
func (c *Client) FetchGames(ctx context.Context, page, pageSize int) ([]RawgGame, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/games?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error carries the full URL, api key included
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("fetch games: %s: %w", uerr.Op, uerr.Err)
		}
		return nil, fmt.Errorf("fetch games: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch games: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body gamesPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode games: %w", err)
	}
	return body.Results, nil
}
