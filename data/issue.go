package data

import (
	"fmt"
	"strings"
)

// IssueStatus is the workflow state of a support issue
type IssueStatus string

// issue states
const (
	IssueSubmitted IssueStatus = "SUBMITTED"
	IssueInReview  IssueStatus = "IN_REVIEW"
	IssueResolved  IssueStatus = "RESOLVED"
	IssueClosed    IssueStatus = "CLOSED"
)

// ParseIssueStatus converts a string to an IssueStatus, ignoring case
func ParseIssueStatus(s string) (IssueStatus, error) {
	st := IssueStatus(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	switch st {
	case IssueSubmitted, IssueInReview, IssueResolved, IssueClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown issue status: %q", s)
}

// Issue is a support ticket submitted by a user
type Issue struct {
	ID               int64       `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description,omitempty"`
	Category         string      `json:"category,omitempty"`
	Severity         string      `json:"severity,omitempty"`
	Status           IssueStatus `json:"status"`
	Username         string      `json:"username,omitempty"`
	OrganizationName string      `json:"organizationName,omitempty"`
	CommentCount     int         `json:"commentCount"`
	CreatedAt        *Time       `json:"createdAt,omitempty"`
}

// IssueComment is a reply on an issue. Internal comments are visible to
// admins only.
type IssueComment struct {
	ID        int64  `json:"id"`
	IssueID   int64  `json:"issueId"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	Internal  bool   `json:"internal"`
	CreatedAt *Time  `json:"createdAt,omitempty"`
}

// NewIssueComment is the payload used to add a comment
type NewIssueComment struct {
	Message  string `json:"message"`
	Internal bool   `json:"internal"`
}

// IssueStatusUpdate is the payload used to change an issue status
type IssueStatusUpdate struct {
	Status IssueStatus `json:"status"`
}
