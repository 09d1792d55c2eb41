package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

// Лимит проверяется только на обновлении - так вел себя исходный API,
// выравнивать без решения по продукту нельзя.
const maxCommentLen = 1000

type CommentService struct {
	tasks    repo.TaskRepository
	comments repo.CommentRepository
}

func NewCommentService(tasks repo.TaskRepository, comments repo.CommentRepository) *CommentService {
	return &CommentService{tasks: tasks, comments: comments}
}

func (s *CommentService) ListByTask(ctx context.Context, taskID int64) ([]model.Comment, error) {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

func (s *CommentService) Create(ctx context.Context, taskID, actorID int64, text string) (model.Comment, error) {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return model.Comment{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return model.Comment{}, ErrValidation
	}

	return s.comments.Create(ctx, taskID, actorID, text)
}

func (s *CommentService) Update(ctx context.Context, taskID, commentID int64, text string) (model.Comment, error) {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return model.Comment{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxCommentLen {
		return model.Comment{}, ErrValidation
	}

	return s.comments.Update(ctx, taskID, commentID, text)
}

func (s *CommentService) Destroy(ctx context.Context, taskID, commentID int64) error {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return err
	}
	return s.comments.Delete(ctx, taskID, commentID)
}
