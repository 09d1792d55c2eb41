package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

var (
	ErrorNotFound    = errors.New("not found")
	ErrorTaskDeleted = errors.New("cannot modify a deleted task")
)

const taskColumns = `id, title, status, created_by, deleted_at, created_at, updated_at`

type TaskRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo { // Конструктор
	return &TaskRepo{
		pool: pool,
	}
}

// Create вставляет задачу и её связи одной транзакцией.
// Несуществующие id категорий/исполнителей молча отбрасываются.
func (r *TaskRepo) Create(ctx context.Context, title, status string, createdBy int64, categoryIDs, assigneeIDs []int64) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO tasks (title, status, created_by)
		VALUES ($1, $2, $3)
		RETURNING id
	`, title, status, createdBy).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := syncCategories(ctx, tx, id, categoryIDs); err != nil {
		return 0, err
	}
	if err := syncAssignees(ctx, tx, id, assigneeIDs); err != nil {
		return 0, err
	}

	return id, tx.Commit(ctx)
}

func (r *TaskRepo) Get(ctx context.Context, id int64, trashed bool) (model.Task, error) {
	var t model.Task
	err := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = $1 AND (deleted_at IS NOT NULL) = $2
	`, id, trashed).Scan(
		&t.ID, &t.Title, &t.Status, &t.CreatedBy, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return t, ErrorNotFound
	}
	if err != nil {
		return t, err
	}

	tasks, err := r.hydrate(ctx, []model.Task{t})
	if err != nil {
		return t, err
	}
	return tasks[0], nil
}

func (r *TaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE (deleted_at IS NOT NULL) = $1
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY id ASC
	`, filter.Trashed, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.CreatedBy, &t.DeletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, tasks)
}

// Counts возвращает количество неудаленных задач по статусам.
// Статусы без задач в выдаче отсутствуют, нули дополняет сервис.
func (r *TaskRepo) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM tasks
		WHERE deleted_at IS NULL
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		out[status] = count
	}
	return out, rows.Err()
}

// Update меняет поля и синхронизирует связи в одной транзакции,
// строка задачи блокируется на время транзакции.
func (r *TaskRepo) Update(ctx context.Context, id int64, upd model.TaskUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var deletedAt *time.Time
	err = tx.QueryRow(ctx, `SELECT deleted_at FROM tasks WHERE id = $1 FOR UPDATE`, id).Scan(&deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrorNotFound
	}
	if err != nil {
		return err
	}
	if deletedAt != nil {
		return ErrorTaskDeleted
	}

	_, err = tx.Exec(ctx, `
		UPDATE tasks
		SET title = COALESCE($2, title), status = COALESCE($3, status), updated_at = now()
		WHERE id = $1
	`, id, upd.Title, upd.Status)
	if err != nil {
		return err
	}

	if upd.CategoryIDs != nil {
		if err := syncCategories(ctx, tx, id, upd.CategoryIDs); err != nil {
			return err
		}
	}
	if upd.AssigneeIDs != nil {
		if err := syncAssignees(ctx, tx, id, upd.AssigneeIDs); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *TaskRepo) SoftDelete(ctx context.Context, id int64) (time.Time, error) {
	var deletedAt time.Time
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING deleted_at
	`, id).Scan(&deletedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrorNotFound
	}
	return deletedAt, err
}

func (r *TaskRepo) Restore(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `
		UPDATE tasks
		SET deleted_at = NULL, updated_at = now()
		WHERE id = $1 AND deleted_at IS NOT NULL
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

// EnsureActive - защита дочерних операций: задача должна существовать
// и не лежать в корзине.
func (r *TaskRepo) EnsureActive(ctx context.Context, id int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND deleted_at IS NULL)
	`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrorNotFound
	}
	return nil
}

// sync: полная замена набора через delete + insert.
// INSERT ... SELECT отфильтровывает несуществующие id, чтобы не ловить FK.
func syncCategories(ctx context.Context, tx pgx.Tx, taskID int64, ids []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM task_category_pivot WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO task_category_pivot (task_id, category_id)
		SELECT $1, id FROM task_categories WHERE id = ANY($2)
		ON CONFLICT DO NOTHING
	`, taskID, ids)
	return err
}

func syncAssignees(ctx context.Context, tx pgx.Tx, taskID int64, ids []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO task_assignees (task_id, user_id)
		SELECT $1, id FROM users WHERE id = ANY($2)
		ON CONFLICT DO NOTHING
	`, taskID, ids)
	return err
}

// hydrate догружает категории, исполнителей и счетчики пачкой на все задачи
func (r *TaskRepo) hydrate(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]int64, len(tasks))
	byID := make(map[int64]*model.Task, len(tasks))
	for i := range tasks {
		tasks[i].Categories = []model.Category{}
		tasks[i].Assignees = []model.UserRef{}
		ids[i] = tasks[i].ID
		byID[tasks[i].ID] = &tasks[i]
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.task_id, c.id, c.name, c.color
		FROM task_category_pivot p
		JOIN task_categories c ON c.id = p.category_id
		WHERE p.task_id = ANY($1)
		ORDER BY c.id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var taskID int64
		var c model.Category
		if err := rows.Scan(&taskID, &c.ID, &c.Name, &c.Color); err != nil {
			rows.Close()
			return nil, err
		}
		byID[taskID].Categories = append(byID[taskID].Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT p.task_id, u.id, u.full_name, u.avatar_url
		FROM task_assignees p
		JOIN users u ON u.id = p.user_id
		WHERE p.task_id = ANY($1)
		ORDER BY u.id ASC
	`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var taskID int64
		var u model.UserRef
		if err := rows.Scan(&taskID, &u.ID, &u.FullName, &u.AvatarURL); err != nil {
			rows.Close()
			return nil, err
		}
		byID[taskID].Assignees = append(byID[taskID].Assignees, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadCounts(ctx, `task_comments`, ids, func(taskID int64, n int) {
		byID[taskID].CommentsCount = n
	}); err != nil {
		return nil, err
	}
	if err := r.loadCounts(ctx, `task_attachments`, ids, func(taskID int64, n int) {
		byID[taskID].AttachmentsCount = n
	}); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepo) loadCounts(ctx context.Context, table string, ids []int64, set func(int64, int)) error {
	rows, err := r.pool.Query(ctx, `
		SELECT task_id, COUNT(*) FROM `+table+` WHERE task_id = ANY($1) GROUP BY task_id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var n int
		if err := rows.Scan(&taskID, &n); err != nil {
			return err
		}
		set(taskID, n)
	}
	return rows.Err()
}
