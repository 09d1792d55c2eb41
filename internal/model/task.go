package model

import "time"

// Статусы задачи
const (
	StatusInProgress = "in_progress"
	StatusReviews    = "reviews"
	StatusCompleted  = "completed"
	StatusDone       = "done"
)

var TaskStatuses = []string{StatusInProgress, StatusReviews, StatusCompleted, StatusDone}

func ValidStatus(s string) bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	CreatedBy        *int64     `json:"created_by"`
	DeletedAt        *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Categories       []Category `json:"categories"`
	Assignees        []UserRef  `json:"assignees"`
	CommentsCount    int        `json:"comments_count"`
	AttachmentsCount int        `json:"attachments_count"`
}

type TaskFilter struct {
	Status  *string
	Trashed bool
}

// TaskUpdate - частичное обновление. nil-поле не трогаем,
// nil-срез означает "не менять", пустой срез - "очистить набор".
type TaskUpdate struct {
	Title       *string
	Status      *string
	CategoryIDs []int64
	AssigneeIDs []int64
}

type DeletedTask struct {
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}
