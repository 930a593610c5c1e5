package workflow

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
)

const defaultClientTimeout = 60 * time.Second

// APIError is a non-2xx answer decoded from the {error:{...}} body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// HTTPClient implements API against a running server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client for baseURL, for example
// "http://localhost:3000". A nil client gets a 60 second timeout, which
// leaves room for the server's own generation deadline.
func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = &http.Client{Timeout: defaultClientTimeout}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c *HTTPClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	if err := c.do(ctx, http.MethodPost, "/api/flashcards/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) CreateSet(ctx context.Context, req CreateSetRequest) (*SavedSet, error) {
	var out SavedSet
	if err := c.do(ctx, http.MethodPost, "/api/flashcard-sets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPage is one page of GET /api/flashcard-sets.
type SetPage struct {
	Data       []SavedSet `json:"data"`
	Pagination struct {
		Total       int64 `json:"total"`
		CurrentPage int   `json:"current_page"`
		TotalPage   int   `json:"total_page"`
		Size        int   `json:"size"`
		HasNextPage bool  `json:"has_next_page"`
	} `json:"pagination"`
}

func (c *HTTPClient) ListSets(ctx context.Context, page, size int) (*SetPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out SetPage
	if err := c.do(ctx, http.MethodGet, "/api/flashcard-sets?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteSet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/flashcard-sets/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	var body struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	apiErr.Code = body.Error.Code
	apiErr.Message = body.Error.Message
	if len(body.Error.Details) > 0 {
		var details map[string]any
		if json.Unmarshal(body.Error.Details, &details) == nil {
			apiErr.Details = details
		}
	}
	return apiErr
}
