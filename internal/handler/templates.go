package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/service"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// TemplateHandler handles the prompt template endpoint.
type TemplateHandler struct {
	service *service.TemplateService
	logger  *logger.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(svc *service.TemplateService, log *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list templates", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list templates")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
