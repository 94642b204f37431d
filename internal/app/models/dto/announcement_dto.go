package dto

import (
	"time"

	"github.com/yigit/techroom/internal/app/repositories"
)

// CreateAnnouncementRequest represents the body of POST /api/announcements.
// Date defaults to the time of creation.
type CreateAnnouncementRequest struct {
	Title   string     `json:"title" binding:"required,max=255" example:"Exam schedule published"`
	Content string     `json:"content" binding:"required" example:"Finals start on June 2nd."`
	Author  string     `json:"author" binding:"omitempty,max=255" example:"Registrar"`
	Date    *time.Time `json:"date"`
}

// ToCandidate converts the request to a store candidate
func (r CreateAnnouncementRequest) ToCandidate() repositories.AnnouncementCandidate {
	candidate := repositories.AnnouncementCandidate{
		Title:   r.Title,
		Content: r.Content,
		Author:  r.Author,
	}
	if r.Date != nil {
		candidate.Date = *r.Date
	}
	return candidate
}
