package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/model"
	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type createTaskRequest struct {
	Title       string  `json:"title" validate:"required,min=3"`
	Status      string  `json:"status" validate:"required,oneof=in_progress reviews completed done"`
	CategoryIDs []int64 `json:"category_ids"`
	AssigneeIDs []int64 `json:"assignee_ids"`
}

type updateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=3"`
	Status      *string `json:"status" validate:"omitempty,oneof=in_progress reviews completed done"`
	CategoryIDs []int64 `json:"category_ids"`
	AssigneeIDs []int64 `json:"assignee_ids"`
}

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
	actorID int64 // фиксированный пользователь, авторизации нет
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger, actorID int64) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
		actorID: actorID,
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TaskFilter
	if status := r.URL.Query().Get("status"); status != "" {
		if !model.ValidStatus(status) {
			respond.Error(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = &status
	}

	tasks, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Deleted(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.ListDeleted(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Counts(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, counts)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Get(r.Context(), idParam(r, "id"), false)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "validation error")
		return
	}

	task, err := h.service.Create(r.Context(), service.CreateTaskInput{
		Title:       req.Title,
		Status:      req.Status,
		CategoryIDs: req.CategoryIDs,
		AssigneeIDs: req.AssigneeIDs,
	}, h.actorID)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", task.ID))
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validate.Struct(req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "validation error")
		return
	}

	task, err := h.service.Update(r.Context(), idParam(r, "id"), model.TaskUpdate{
		Title:       req.Title,
		Status:      req.Status,
		CategoryIDs: req.CategoryIDs,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.SoftDelete(r.Context(), idParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, out)
}

func (h *TaskHandler) Restore(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Restore(r.Context(), idParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}
