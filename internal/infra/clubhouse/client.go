// Package clubhouse implements the tracker port against the Clubhouse
// REST API v2. The API token travels as a query parameter on every
// request, matching how the service authenticates.
package clubhouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitaka/clubsync/internal/domain"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.clubhouse.io/api/v2"

// Ensure Client implements domain.Tracker interface.
var _ domain.Tracker = (*Client)(nil)

// Client is an HTTP client for the Clubhouse REST API v2.
type Client struct {
	baseURL string
	cfg     *domain.Config
	httpc   *http.Client
	logger  domain.Logger
}

// NewClient creates a tracker client using the token from the config.
func NewClient(cfg *domain.Config, logger domain.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		cfg:     cfg,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Projects returns the project directory. Names are lowercased so they
// match the task database's project field conventions.
func (c *Client) Projects(ctx context.Context) (map[int]string, error) {
	var resp []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, "projects", nil, nil, &resp); err != nil {
		return nil, err
	}

	projects := make(map[int]string, len(resp))
	for _, p := range resp {
		projects[p.ID] = strings.ToLower(p.Name)
	}
	return projects, nil
}

// WorkflowStates returns the state directory of the default workflow.
func (c *Client) WorkflowStates(ctx context.Context) (map[int]string, error) {
	var resp []struct {
		States []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"states"`
	}
	if err := c.do(ctx, http.MethodGet, "workflows", nil, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("clubhouse: no workflows defined")
	}

	states := make(map[int]string, len(resp[0].States))
	for _, s := range resp[0].States {
		states[s.ID] = s.Name
	}
	return states, nil
}

// SearchStories returns the stories matching the query.
func (c *Client) SearchStories(ctx context.Context, query string, dir *domain.Directory) ([]*domain.Story, error) {
	var resp struct {
		Data []apiStory `json:"data"`
	}
	params := url.Values{"query": {query}}
	if err := c.do(ctx, http.MethodGet, "search/stories", params, nil, &resp); err != nil {
		return nil, err
	}

	stories := make([]*domain.Story, 0, len(resp.Data))
	for i := range resp.Data {
		stories = append(stories, resp.Data[i].toDomain(c.cfg, dir))
	}
	return stories, nil
}

// UpdateStory applies the field portion of a delta to a story. Link
// operations go through CreateStoryLink and DeleteStoryLink instead.
func (c *Client) UpdateStory(ctx context.Context, id int, delta *domain.Delta) error {
	payload := make(map[string]any)
	if delta.Name != nil {
		payload["name"] = *delta.Name
	}
	if delta.WorkflowStateID != nil {
		payload["workflow_state_id"] = *delta.WorkflowStateID
	}
	if delta.ProjectID != nil {
		payload["project_id"] = *delta.ProjectID
	}
	if delta.Deadline != nil {
		if *delta.Deadline == "" {
			payload["deadline"] = nil // explicit null clears the deadline
		} else {
			payload["deadline"] = *delta.Deadline
		}
	}
	if delta.Labels != nil {
		payload["labels"] = delta.Labels
	}

	return c.do(ctx, http.MethodPut, "stories/"+strconv.Itoa(id), nil, payload, nil)
}

// CreateStoryLink creates a blocking relationship.
func (c *Client) CreateStoryLink(ctx context.Context, link domain.StoryLink) error {
	return c.do(ctx, http.MethodPost, "story-links", nil, link, nil)
}

// DeleteStoryLink removes a blocking relationship by link id.
func (c *Client) DeleteStoryLink(ctx context.Context, linkID string) error {
	return c.do(ctx, http.MethodDelete, "story-links/"+linkID, nil, nil, nil)
}

// do performs one API request and decodes the response into out when
// out is non-nil. Any non-2xx status is an error carrying the status
// and a snippet of the response body.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.cfg.APIToken)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clubhouse: encode %s %s: %w", method, endpoint, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("clubhouse: build %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("clubhouse", fmt.Sprintf("%s %s", method, endpoint))

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("clubhouse: %s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("clubhouse: %s %s: %s: %s", method, endpoint, resp.Status, bytes.TrimSpace(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("clubhouse: decode %s %s: %w", method, endpoint, err)
	}
	return nil
}
