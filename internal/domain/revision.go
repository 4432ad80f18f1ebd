// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Revision is one saved version of a wiki page as returned by the revision source.
// It is the core input entity of this application.
type Revision struct {
	ID        int64
	ParentID  int64
	Timestamp time.Time
	User      string
	Comment   string
	// Content is nil when the revision exposes no main content slot
	// (hidden, suppressed or otherwise unavailable text).
	Content *Content
}

// Content is the text held by a revision's main slot.
type Content struct {
	Text string
}

// Text returns the revision's content and whether a content slot was present.
func (r Revision) Text() (string, bool) {
	if r.Content == nil {
		return "", false
	}
	return r.Content.Text, true
}

// NewContent is a convenience constructor for a present content slot.
func NewContent(text string) *Content {
	return &Content{Text: text}
}
