package domain

import (
	"fmt"
	"time"
)

// MissingContentWarning is recorded on entries whose revision had no content slot.
const MissingContentWarning = "Expected keys not found in revision"

// Changes holds the character deltas and the signed line diff between two revisions.
type Changes struct {
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Diff    string `json:"diff"`
}

// Entry is a single revision in a Report.
// Exactly one of {ContentLength and Changes} or Warning is populated.
type Entry struct {
	RevisionID    int64     `json:"revision_id"`
	Timestamp     time.Time `json:"timestamp"`
	Comment       string    `json:"comment"`
	ContentLength *int      `json:"content_length,omitempty"`
	Changes       *Changes  `json:"changes,omitempty"`
	Warning       string    `json:"warning,omitempty"`
}

// HasContent reports whether the entry carries a content length and changes.
func (e Entry) HasContent() bool {
	return e.ContentLength != nil && e.Changes != nil
}

// Report is the terminal artifact: one user's revisions on one page, oldest first.
type Report struct {
	PageURL        string  `json:"page_url"`
	PageTitle      string  `json:"page_title"`
	Username       string  `json:"username"`
	TotalRevisions int     `json:"total_revisions"`
	Revisions      []Entry `json:"revisions"`
}

// Validate checks the invariants a renderer relies on.
func (r *Report) Validate() error {
	if r.TotalRevisions != len(r.Revisions) {
		return fmt.Errorf("total_revisions is %d but %d revisions are recorded", r.TotalRevisions, len(r.Revisions))
	}
	for i, e := range r.Revisions {
		hasContent := e.ContentLength != nil || e.Changes != nil
		switch {
		case hasContent && !e.HasContent():
			return fmt.Errorf("revision %d (index %d): content_length and changes must be set together", e.RevisionID, i)
		case hasContent && e.Warning != "":
			return fmt.Errorf("revision %d (index %d): has both content and a warning", e.RevisionID, i)
		case !hasContent && e.Warning == "":
			return fmt.Errorf("revision %d (index %d): has neither content nor a warning", e.RevisionID, i)
		}
	}
	return nil
}
