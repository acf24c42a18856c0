package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/indcloud/console/data"
)

const issuesPath = "/api/v1/admin/support/issues"

// Issues lists support issues, optionally only those with status
func (c *Client) Issues(ctx context.Context, status data.IssueStatus) ([]data.Issue, error) {
	var q url.Values
	if status != "" {
		q = url.Values{"status": {string(status)}}
	}
	var ret []data.Issue
	err := c.do(ctx, http.MethodGet, issuesPath, q, nil, &ret)
	return ret, err
}

// Issue fetches one issue
func (c *Client) Issue(ctx context.Context, id int64) (data.Issue, error) {
	var ret data.Issue
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%v/%v", issuesPath, id), nil, nil, &ret)
	return ret, err
}

// SetIssueStatus moves an issue through its workflow
func (c *Client) SetIssueStatus(ctx context.Context, id int64, status data.IssueStatus) (data.Issue, error) {
	var ret data.Issue
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("%v/%v/status", issuesPath, id), nil,
		data.IssueStatusUpdate{Status: status}, &ret)
	return ret, err
}

// IssueComments lists the comments on an issue, oldest first
func (c *Client) IssueComments(ctx context.Context, id int64) ([]data.IssueComment, error) {
	var ret []data.IssueComment
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%v/%v/comments", issuesPath, id), nil, nil, &ret)
	return ret, err
}

// AddIssueComment posts a comment on an issue
func (c *Client) AddIssueComment(ctx context.Context, id int64, comment data.NewIssueComment) (data.IssueComment, error) {
	var ret data.IssueComment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("%v/%v/comments", issuesPath, id), nil, comment, &ret)
	return ret, err
}
