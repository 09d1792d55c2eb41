package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

// ListByTask отдает комментарии с минимальным профилем автора
func (r *CommentRepo) ListByTask(ctx context.Context, taskID int64) ([]model.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.task_id, c.user_id, c.comment, c.created_at, c.updated_at,
		       u.id, u.full_name, u.avatar_url
		FROM task_comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.task_id = $1
		ORDER BY c.id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		var u model.UserRef
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Comment, &c.CreatedAt, &c.UpdatedAt,
			&u.ID, &u.FullName, &u.AvatarURL); err != nil {
			return nil, err
		}
		c.User = &u
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepo) Create(ctx context.Context, taskID, userID int64, text string) (model.Comment, error) {
	c := model.Comment{TaskID: taskID, UserID: userID, Comment: text}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_comments (task_id, user_id, comment)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, taskID, userID, text).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Update меняет текст только если комментарий принадлежит указанной задаче
func (r *CommentRepo) Update(ctx context.Context, taskID, commentID int64, text string) (model.Comment, error) {
	var c model.Comment
	err := r.pool.QueryRow(ctx, `
		UPDATE task_comments
		SET comment = $3, updated_at = now()
		WHERE id = $2 AND task_id = $1
		RETURNING id, task_id, user_id, comment, created_at, updated_at
	`, taskID, commentID, text).Scan(
		&c.ID, &c.TaskID, &c.UserID, &c.Comment, &c.CreatedAt, &c.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return c, ErrorNotFound
	}
	return c, err
}

func (r *CommentRepo) Delete(ctx context.Context, taskID, commentID int64) error {
	cmd, err := r.pool.Exec(ctx, `
		DELETE FROM task_comments WHERE id = $2 AND task_id = $1
	`, taskID, commentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
