package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/repo"
)

const MaxFileSize = 5 << 20 // 5 MB

var allowedExtensions = map[string]struct{}{
	"pdf": {}, "doc": {}, "docx": {}, "png": {}, "jpg": {}, "jpeg": {},
}

type AttachmentService struct {
	tasks       repo.TaskRepository
	attachments repo.AttachmentRepository
	uploadDir   string
	logger      *zap.Logger
}

func NewAttachmentService(tasks repo.TaskRepository, attachments repo.AttachmentRepository, uploadDir string, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		tasks:       tasks,
		attachments: attachments,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

func (s *AttachmentService) List(ctx context.Context, taskID int64) ([]model.Attachment, error) {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return nil, err
	}
	return s.attachments.ListByTask(ctx, taskID)
}

// Upload валидирует размер и расширение до того, как что-либо появится
// на диске или в БД. Файл кладется под сгенерированным именем - имена
// никогда не переиспользуются, коллизий и перезаписи не бывает.
func (s *AttachmentService) Upload(ctx context.Context, taskID, uploaderID int64, file io.Reader, clientName string, size int64, ext string) (model.Attachment, error) {
	if err := s.tasks.EnsureActive(ctx, taskID); err != nil {
		return model.Attachment{}, err
	}

	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return model.Attachment{}, ErrValidation
	}
	if size <= 0 || size > MaxFileSize {
		return model.Attachment{}, ErrValidation
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return model.Attachment{}, err
	}

	stored := uuid.NewString() + "." + ext
	dst := filepath.Join(s.uploadDir, stored)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return model.Attachment{}, err
	}

	// Заявленному размеру не доверяем, поток режем сами
	written, err := io.Copy(f, io.LimitReader(file, MaxFileSize+1))
	closeErr := f.Close()
	if err == nil && written > MaxFileSize {
		err = ErrValidation
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return model.Attachment{}, err
	}

	if clientName == "" {
		clientName = stored
	}

	att, err := s.attachments.Create(ctx, model.Attachment{
		TaskID:     taskID,
		FileName:   clientName,
		FilePath:   stored,
		FileSize:   written,
		UploadedBy: uploaderID,
	})
	if err != nil {
		os.Remove(dst) // не оставляем осиротевший файл
		return model.Attachment{}, err
	}
	return att, nil
}

// DownloadPath отдает абсолютный путь и имя для скачивания.
// filepath.Base отсекает path traversal через подмененный file_path.
// Существование файла на диске проверяет вызывающий.
func (s *AttachmentService) DownloadPath(ctx context.Context, attachmentID int64) (string, string, error) {
	att, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.uploadDir, filepath.Base(att.FilePath)), att.FileName, nil
}

// Destroy удаляет запись всегда, файл - по возможности. Неудача
// удаления файла не роняет операцию, только пишется в лог.
func (s *AttachmentService) Destroy(ctx context.Context, attachmentID int64) error {
	att, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return err
	}

	path := filepath.Join(s.uploadDir, filepath.Base(att.FilePath))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove attachment file",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	return s.attachments.Delete(ctx, attachmentID)
}
