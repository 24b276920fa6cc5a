package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crmsync/internal/domain/run"
)

// Client is the thin HTTP client the operator CLI uses against the sync
// server's API.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// RunList is one page of the run listing.
type RunList struct {
	Runs       []run.View     `json:"runs"`
	Pagination run.Pagination `json:"pagination"`
}

func (c *Client) CreateRun(ctx context.Context, req run.CreateRequest) (*run.View, error) {
	var view run.View
	if err := c.do(ctx, http.MethodPost, "/api/runs", nil, req, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) ListRuns(ctx context.Context, integrationID, status string, limit, offset int) (*RunList, error) {
	query := url.Values{}
	if integrationID != "" {
		query.Set("integration_id", integrationID)
	}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var list RunList
	if err := c.do(ctx, http.MethodGet, "/api/runs", query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetRun(ctx context.Context, id string) (*run.View, error) {
	var view run.View
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+id, nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *Client) PauseRun(ctx context.Context, id string) (*run.View, error) {
	return c.action(ctx, id, "pause")
}

func (c *Client) CancelRun(ctx context.Context, id string) (*run.View, error) {
	return c.action(ctx, id, "cancel")
}

func (c *Client) ResumeRun(ctx context.Context, id string) (*run.View, error) {
	return c.action(ctx, id, "resume")
}

func (c *Client) RunErrors(ctx context.Context, id, entityType, errorType string, limit, offset int) (*run.ErrorLog, error) {
	query := url.Values{}
	if entityType != "" {
		query.Set("entity_type", entityType)
	}
	if errorType != "" {
		query.Set("error_type", errorType)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}

	var log run.ErrorLog
	if err := c.do(ctx, http.MethodGet, "/api/runs/"+id+"/errors", query, nil, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

func (c *Client) SetToken(ctx context.Context, integrationID, token string) error {
	body := map[string]string{"token": token}
	return c.do(ctx, http.MethodPut, "/api/integrations/"+integrationID+"/token", nil, body, nil)
}

func (c *Client) action(ctx context.Context, id, verb string) (*run.View, error) {
	var view run.View
	if err := c.do(ctx, http.MethodPost, "/api/runs/"+id+"/"+verb, nil, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// apiError is the problem-details shape the server produces for failures.
type apiError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("%s", apiErr.Detail)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
