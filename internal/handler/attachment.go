package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type AttachmentHandler struct {
	service *service.AttachmentService
	logger  *zap.Logger
	actorID int64
}

func NewAttachmentHandler(srv *service.AttachmentService, logger *zap.Logger, actorID int64) *AttachmentHandler {
	return &AttachmentHandler{
		service: srv,
		logger:  logger,
		actorID: actorID,
	}
}

func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	attachments, err := h.service.List(r.Context(), idParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, attachments)
}

func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Запас под multipart-обвязку, сам файл сервис ограничивает точнее
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxFileSize+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, `missing file field "file"`)
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	att, err := h.service.Upload(r.Context(), idParam(r, "id"), h.actorID, file, header.Filename, header.Size, ext)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, att)
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	path, name, err := h.service.DownloadPath(r.Context(), idParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	// Запись есть, а файла может уже не быть - это отдельный случай
	if _, err := os.Stat(path); err != nil {
		respond.Error(w, r, http.StatusNotFound, "file not found")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (h *AttachmentHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Destroy(r.Context(), idParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
