package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type createCommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

// На обновлении действует лимит длины, на создании - нет (поведение исходного API)
type updateCommentRequest struct {
	Comment string `json:"comment" validate:"required,max=1000"`
}

type CommentHandler struct {
	service *service.CommentService
	logger  *zap.Logger
	actorID int64
}

func NewCommentHandler(srv *service.CommentService, logger *zap.Logger, actorID int64) *CommentHandler {
	return &CommentHandler{
		service: srv,
		logger:  logger,
		actorID: actorID,
	}
}

func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListByTask(r.Context(), idParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, comments)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "validation error")
		return
	}

	comment, err := h.service.Create(r.Context(), idParam(r, "id"), h.actorID, req.Comment)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "validation error")
		return
	}

	comment, err := h.service.Update(r.Context(), idParam(r, "id"), idParam(r, "commentID"), req.Comment)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Destroy(r.Context(), idParam(r, "id"), idParam(r, "commentID")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, map[string]bool{"success": true})
}
