package models

import "time"

// Announcement is a dated notice shown on the dashboard
type Announcement struct {
	ID      int64     `json:"id" db:"id"`
	Title   string    `json:"title" db:"title"`
	Content string    `json:"content" db:"content"`
	Author  string    `json:"author,omitempty" db:"author"`
	Date    time.Time `json:"date" db:"date"`
}
