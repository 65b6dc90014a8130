package model

import "time"

// Announcement is an admin-posted notice, optionally scoped by stream/class.
type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Stream    string    `json:"stream,omitempty"`
	Class     string    `json:"class,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
