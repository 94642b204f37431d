package services

import (
	"context"
	"fmt"

	"github.com/yigit/techroom/internal/app/models"
	"github.com/yigit/techroom/internal/app/repositories"
)

// AnnouncementService handles dashboard announcements
type AnnouncementService struct {
	store repositories.RecordStore
}

// NewAnnouncementService creates a new announcement service instance
func NewAnnouncementService(store repositories.RecordStore) *AnnouncementService {
	return &AnnouncementService{store: store}
}

// ListAnnouncements returns announcements newest first
func (s *AnnouncementService) ListAnnouncements(ctx context.Context) ([]*models.Announcement, error) {
	announcements, err := s.store.ListAnnouncements(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing announcements: %w", err)
	}
	return announcements, nil
}

// CreateAnnouncement publishes a new announcement
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, candidate repositories.AnnouncementCandidate) (*models.Announcement, error) {
	announcement, err := s.store.CreateAnnouncement(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("error creating announcement: %w", err)
	}
	return announcement, nil
}
