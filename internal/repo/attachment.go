package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
)

type AttachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepo(pool *pgxpool.Pool) *AttachmentRepo {
	return &AttachmentRepo{pool: pool}
}

func (r *AttachmentRepo) ListByTask(ctx context.Context, taskID int64) ([]model.Attachment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, file_name, file_path, file_size, uploaded_by, created_at
		FROM task_attachments
		WHERE task_id = $1
		ORDER BY id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]model.Attachment, 0)
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.FileName, &a.FilePath, &a.FileSize, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *AttachmentRepo) Create(ctx context.Context, a model.Attachment) (model.Attachment, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO task_attachments (task_id, file_name, file_path, file_size, uploaded_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, a.TaskID, a.FileName, a.FilePath, a.FileSize, a.UploadedBy).Scan(&a.ID, &a.CreatedAt)
	return a, err
}

func (r *AttachmentRepo) Get(ctx context.Context, id int64) (model.Attachment, error) {
	var a model.Attachment
	err := r.pool.QueryRow(ctx, `
		SELECT id, task_id, file_name, file_path, file_size, uploaded_by, created_at
		FROM task_attachments
		WHERE id = $1
	`, id).Scan(&a.ID, &a.TaskID, &a.FileName, &a.FilePath, &a.FileSize, &a.UploadedBy, &a.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrorNotFound
	}
	return a, err
}

func (r *AttachmentRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM task_attachments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
