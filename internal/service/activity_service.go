package service

import (
	"context"

	"assettrack/internal/model"
	"assettrack/internal/repository"
)

type ActivityService interface {
	List(ctx context.Context, page, limit int) ([]model.ActivityLog, int64, error)
}

type activityService struct {
	activities repository.ActivityRepository
}

func NewActivityService(activities repository.ActivityRepository) ActivityService {
	return &activityService{activities: activities}
}

func (s *activityService) List(ctx context.Context, page, limit int) ([]model.ActivityLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	return s.activities.List(ctx, page, limit)
}
