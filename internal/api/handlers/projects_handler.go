package handlers

import (
	"context"
	"net/http"

	"github.com/iac-studio/rolecfg/internal/api/types"
	"github.com/iac-studio/rolecfg/internal/models"
)

// ProjectLister is the read side of the project registry.
type ProjectLister interface {
	List(ctx context.Context) ([]models.Project, error)
}

type ProjectsHandler struct {
	projects ProjectLister
}

func NewProjectsHandler(projects ProjectLister) *ProjectsHandler {
	return &ProjectsHandler{projects: projects}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}
