// Package planner is a small Microsoft Graph Planner REST client covering the
// calls needed to mirror plans, buckets and tasks and to write tasks back with
// optimistic concurrency.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/harrisonrobin/plannersync/pkg/log"
	"github.com/harrisonrobin/plannersync/pkg/model"
)

// DefaultBaseURL is the Microsoft Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// APIError is an unexpected non-2xx response from Graph.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("graph api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("graph api returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// ClientConfig is the configuration of the Planner client.
type ClientConfig struct {
	BaseURL string
	// GroupID scopes plan listing to a Microsoft 365 group. When empty
	// /planner/plans is listed.
	GroupID    string
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.HTTPClient == nil {
		return fmt.Errorf("http client is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "planner.Client"})
	return nil
}

// Client is a Microsoft Graph Planner client.
type Client struct {
	baseURL string
	groupID string
	http    *http.Client
	logger  log.Logger
}

// NewClient creates a new Planner client. The HTTP client is expected to
// carry the bearer credential (see auth.GraphClient).
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		groupID: cfg.GroupID,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}, nil
}

// ListPlans lists every visible plan.
func (c *Client) ListPlans(ctx context.Context) ([]Plan, error) {
	path := "/planner/plans"
	if c.groupID != "" {
		path = "/groups/" + url.PathEscape(c.groupID) + "/planner/plans"
	}
	return list[Plan](ctx, c, path)
}

// ListBuckets lists the buckets of a plan.
func (c *Client) ListBuckets(ctx context.Context, planID string) ([]Bucket, error) {
	return list[Bucket](ctx, c, "/planner/plans/"+url.PathEscape(planID)+"/buckets")
}

// ListTasks lists the tasks of a bucket.
func (c *Client) ListTasks(ctx context.Context, bucketID string) ([]Task, error) {
	return list[Task](ctx, c, "/planner/buckets/"+url.PathEscape(bucketID)+"/tasks")
}

// GetTask returns a single task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var t Task
	if _, err := c.do(ctx, http.MethodGet, taskPath(taskID), nil, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTaskDetails returns the details (description) of a task.
func (c *Client) GetTaskDetails(ctx context.Context, taskID string) (*TaskDetails, error) {
	var d TaskDetails
	if _, err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/details", nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateTask applies patch to the task only if its current version token still
// equals etag. It returns the new version token. A stale etag yields
// model.ErrPreconditionFailed.
func (c *Client) UpdateTask(ctx context.Context, taskID string, patch TaskPatch, etag string) (string, error) {
	headers := map[string]string{
		"If-Match": etag,
		"Prefer":   "return=representation",
	}

	var updated Task
	respHeader, err := c.do(ctx, http.MethodPatch, taskPath(taskID), patch, headers, &updated)
	if err != nil {
		return "", err
	}
	if updated.ETag != "" {
		return updated.ETag, nil
	}
	if tag := respHeader.Get("ETag"); tag != "" {
		return tag, nil
	}

	// Graph answered 204 without representation, read the fresh token.
	t, err := c.GetTask(ctx, taskID)
	if err != nil {
		return "", fmt.Errorf("could not read new version token: %w", err)
	}
	return t.ETag, nil
}

// DeleteTask deletes a task guarded by etag. When etag is empty the current
// token is read first, which makes the delete unconditional.
func (c *Client) DeleteTask(ctx context.Context, taskID string, etag string) error {
	if etag == "" {
		t, err := c.GetTask(ctx, taskID)
		if err != nil {
			return fmt.Errorf("could not read current version token: %w", err)
		}
		etag = t.ETag
	}

	_, err := c.do(ctx, http.MethodDelete, taskPath(taskID), nil, map[string]string{"If-Match": etag}, nil)
	return err
}

func taskPath(taskID string) string {
	return "/planner/tasks/" + url.PathEscape(taskID)
}

// list follows @odata.nextLink until every page has been read.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		var page listResponse[T]
		if _, err := c.do(ctx, http.MethodGet, next, nil, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) (http.Header, error) {
	u := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		u = c.baseURL + path
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("could not encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.logger.WithCtxValues(ctx).Debugf("%s %s", method, u)
	resp, err := c.http.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %w", model.ErrAuthUnavailable, err)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, statusError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, fmt.Errorf("could not decode response: %w", err)
		}
	}
	return resp.Header, nil
}

func statusError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body apiErrorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}

	switch resp.StatusCode {
	case http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %w", model.ErrPreconditionFailed, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", model.ErrNotFound, apiErr)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", model.ErrAuthUnavailable, apiErr)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %w", model.ErrNotValid, apiErr)
	}
	return apiErr
}
