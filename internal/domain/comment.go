package domain

import "time"

// Comment is a message in a ticket's thread. Comments are immutable once
// written; CreatedAt is the ordering key for display.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Message   string
	CreatedAt time.Time
}

// CommentView is a comment with its author reference expanded.
type CommentView struct {
	Comment
	Author UserSummary
}
