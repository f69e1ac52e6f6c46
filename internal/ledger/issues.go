package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ukydev/carlog/internal/models"
)

var ErrIssueNotFound = errors.New("known issue not found")

// AddIssue appends an unresolved known issue to the vehicle.
func AddIssue(v models.Vehicle, description string, now time.Time) models.Vehicle {
	issues := make([]models.KnownIssue, len(v.KnownIssues), len(v.KnownIssues)+1)
	copy(issues, v.KnownIssues)
	v.KnownIssues = append(issues, models.KnownIssue{
		ID:          uuid.NewString(),
		Description: description,
		DateAdded:   now,
	})
	return v
}

// ToggleIssue flips the resolved flag on the issue with the given id.
func ToggleIssue(v models.Vehicle, issueID string) (models.Vehicle, error) {
	issues := make([]models.KnownIssue, len(v.KnownIssues))
	copy(issues, v.KnownIssues)
	for i := range issues {
		if issues[i].ID == issueID {
			issues[i].Resolved = !issues[i].Resolved
			v.KnownIssues = issues
			return v, nil
		}
	}
	return models.Vehicle{}, ErrIssueNotFound
}

// RemoveIssue deletes the issue with the given id. Explicit user confirmation
// is the caller's contract.
func RemoveIssue(v models.Vehicle, issueID string) (models.Vehicle, error) {
	issues := make([]models.KnownIssue, 0, len(v.KnownIssues))
	found := false
	for _, issue := range v.KnownIssues {
		if issue.ID == issueID {
			found = true
			continue
		}
		issues = append(issues, issue)
	}
	if !found {
		return models.Vehicle{}, ErrIssueNotFound
	}
	v.KnownIssues = issues
	return v, nil
}
