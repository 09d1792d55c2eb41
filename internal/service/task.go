package service

import (
	"context"
	"errors"
	"strings"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type CreateTaskInput struct {
	Title       string
	Status      string
	CategoryIDs []int64
	AssigneeIDs []int64
}

type TaskService struct {
	repo repo.TaskRepository
}

func NewTaskService(repo repo.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Status != nil && !model.ValidStatus(*filter.Status) {
		return nil, ErrValidation
	}
	return s.repo.List(ctx, filter)
}

// ListDeleted - содержимое корзины
func (s *TaskService) ListDeleted(ctx context.Context) ([]model.Task, error) {
	return s.List(ctx, model.TaskFilter{Trashed: true})
}

// Counts всегда возвращает все четыре статуса, пустые - нулями
func (s *TaskService) Counts(ctx context.Context) (map[string]int, error) {
	raw, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int, len(model.TaskStatuses))
	for _, status := range model.TaskStatuses {
		out[status] = raw[status]
	}
	return out, nil
}

func (s *TaskService) Get(ctx context.Context, id int64, trashed bool) (model.Task, error) {
	return s.repo.Get(ctx, id, trashed)
}

// Create создает задачу от имени actorID. Переданные id категорий и
// исполнителей, не существующие в БД, молча пропускаются.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput, actorID int64) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" || !model.ValidStatus(in.Status) {
		return model.Task{}, ErrValidation
	}

	id, err := s.repo.Create(ctx, in.Title, in.Status, actorID, in.CategoryIDs, in.AssigneeIDs)
	if err != nil {
		return model.Task{}, err
	}

	return s.repo.Get(ctx, id, false)
}

// Update - частичное обновление. Переданный список связей полностью
// заменяет прежний набор. Удаленную задачу менять нельзя.
func (s *TaskService) Update(ctx context.Context, id int64, upd model.TaskUpdate) (model.Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return model.Task{}, ErrValidation
	}
	if upd.Status != nil && !model.ValidStatus(*upd.Status) {
		return model.Task{}, ErrValidation
	}

	if err := s.repo.Update(ctx, id, upd); err != nil {
		return model.Task{}, err
	}

	return s.repo.Get(ctx, id, false)
}

// SoftDelete переводит задачу в корзину. Комментарии и вложения не
// трогаем - они становятся недоступны через гвард по задаче.
func (s *TaskService) SoftDelete(ctx context.Context, id int64) (model.DeletedTask, error) {
	deletedAt, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return model.DeletedTask{}, err
	}
	return model.DeletedTask{ID: id, DeletedAt: deletedAt}, nil
}

func (s *TaskService) Restore(ctx context.Context, id int64) (model.Task, error) {
	if err := s.repo.Restore(ctx, id); err != nil {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, id, false)
}
