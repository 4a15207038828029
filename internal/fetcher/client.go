package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mzielinski/goalcast/internal/pkg/models"
)

const defaultBaseURL = "https://api.football-data.org/v4"

// Client fetches fixtures and team history from the football-data.org v4 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a fake server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

type matchesResponse struct {
	Matches []models.Match `json:"matches"`
}

// CompetitionMatches returns the fixtures of a competition inside [from, to].
func (c *Client) CompetitionMatches(ctx context.Context, competitionID int, from, to time.Time) ([]models.Match, error) {
	params := url.Values{}
	params.Set("dateFrom", from.Format("2006-01-02"))
	params.Set("dateTo", to.Format("2006-01-02"))

	path := fmt.Sprintf("/competitions/%d/matches", competitionID)
	return c.fetchMatches(ctx, path, params)
}

// TeamMatches returns a team's most recent finished matches, newest first.
func (c *Client) TeamMatches(ctx context.Context, teamID, limit int) ([]models.Match, error) {
	params := url.Values{}
	params.Set("status", models.StatusFinished)
	params.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("/teams/%d/matches", teamID)
	matches, err := c.fetchMatches(ctx, path, params)
	if err != nil {
		return nil, err
	}

	// API returns oldest first; history consumers expect newest first
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	return matches, nil
}

func (c *Client) fetchMatches(ctx context.Context, path string, params url.Values) ([]models.Match, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status code %d for %s: %s", resp.StatusCode, path, string(body))
	}

	var matchesResp matchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&matchesResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return matchesResp.Matches, nil
}
