package services

import (
	"context"
	"time"

	"github.com/yigit/techroom/internal/app/repositories"
)

// HealthService reports whether the record store is reachable
type HealthService struct {
	store   repositories.RecordStore
	timeout time.Duration
}

// NewHealthService creates a new health service instance
func NewHealthService(store repositories.RecordStore) *HealthService {
	return &HealthService{store: store, timeout: 2 * time.Second}
}

// Check pings the store within a short deadline
func (s *HealthService) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Ping(ctx)
}
