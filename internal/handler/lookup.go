package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-tracker-api/internal/service"
	"github.com/BuzzLyutic/task-tracker-api/pkg/respond"
)

type LookupHandler struct {
	service *service.LookupService
	logger  *zap.Logger
}

func NewLookupHandler(srv *service.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{service: srv, logger: logger}
}

func (h *LookupHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Users(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, users)
}

func (h *LookupHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, categories)
}
