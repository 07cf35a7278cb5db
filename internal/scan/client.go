package scan

import (
	"context"
	"net/url"
	"strconv"

	"github.com/siteprobe/siteprobe-cli/internal/api"
	"github.com/siteprobe/siteprobe-cli/internal/logging"
)

const basePath = "/api/v2/scan"

// Client wraps the scan endpoints. All authenticated calls go through the
// shared request layer, which owns bearer injection and the 401 retry.
type Client struct {
	api *api.Client
	log logging.Logger
}

// NewClient creates a scan client over an authenticated api.Client.
func NewClient(apiClient *api.Client, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop{}
	}
	return &Client{api: apiClient, log: log}
}

type createRequest struct {
	URL      string `json:"url"`
	ScanType Type   `json:"scanType"`
}

// CreateTask submits a URL for analysis and returns the pending task.
// Requires a signed-in session; quota rejections surface as QuotaExceeded.
func (c *Client) CreateTask(ctx context.Context, target string, scanType Type) (*Task, error) {
	if scanType == "" {
		scanType = TypeBasic
	}

	var task Task
	if err := c.api.Post(ctx, basePath, createRequest{URL: target, ScanType: scanType}, &task); err != nil {
		return nil, err
	}
	c.log.Info(ctx, "scan task created", "taskId", task.TaskID, "url", target, "type", scanType)
	return &task, nil
}

// GetTask fetches the current snapshot of a task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var task Task
	if err := c.api.Get(ctx, basePath+"/"+url.PathEscape(taskID), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Quota fetches the remaining scan allowance.
func (c *Client) Quota(ctx context.Context) (*Quota, error) {
	var q Quota
	if err := c.api.Get(ctx, basePath+"/user/quota", nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// UserStatus fetches the pre-scan capability check.
func (c *Client) UserStatus(ctx context.Context) (*UserStatus, error) {
	var s UserStatus
	if err := c.api.Get(ctx, basePath+"/user/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// History fetches one page of the server-side scan history.
func (c *Client) History(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var page HistoryPage
	if err := c.api.Get(ctx, basePath+"/user/history", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// URLStats fetches public per-URL statistics. No authentication required.
func (c *Client) URLStats(ctx context.Context, target string) (*URLStats, error) {
	q := url.Values{}
	q.Set("url", target)

	var stats URLStats
	if err := c.api.GetPublic(ctx, basePath+"/url/stats", q, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
