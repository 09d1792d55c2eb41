package service

import (
	"context"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

type LookupService struct {
	repo repo.LookupRepository
}

func NewLookupService(repo repo.LookupRepository) *LookupService {
	return &LookupService{repo: repo}
}

func (s *LookupService) Users(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *LookupService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}
