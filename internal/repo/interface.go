package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, title, status string, createdBy int64, categoryIDs, assigneeIDs []int64) (int64, error)
	Get(ctx context.Context, id int64, trashed bool) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Counts(ctx context.Context) (map[string]int, error)
	Update(ctx context.Context, id int64, upd model.TaskUpdate) error
	SoftDelete(ctx context.Context, id int64) (time.Time, error)
	Restore(ctx context.Context, id int64) error
	EnsureActive(ctx context.Context, id int64) error
}

// CommentRepository - комментарии к задаче
type CommentRepository interface {
	ListByTask(ctx context.Context, taskID int64) ([]model.Comment, error)
	Create(ctx context.Context, taskID, userID int64, text string) (model.Comment, error)
	Update(ctx context.Context, taskID, commentID int64, text string) (model.Comment, error)
	Delete(ctx context.Context, taskID, commentID int64) error
}

// AttachmentRepository - записи о вложениях (сами файлы живут на диске)
type AttachmentRepository interface {
	ListByTask(ctx context.Context, taskID int64) ([]model.Attachment, error)
	Create(ctx context.Context, a model.Attachment) (model.Attachment, error)
	Get(ctx context.Context, id int64) (model.Attachment, error)
	Delete(ctx context.Context, id int64) error
}

// LookupRepository - справочные списки для селектов
type LookupRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
}
