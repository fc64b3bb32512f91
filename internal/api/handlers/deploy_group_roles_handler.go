package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iac-studio/rolecfg/internal/api/middleware"
	"github.com/iac-studio/rolecfg/internal/api/types"
	"github.com/iac-studio/rolecfg/internal/api/validators"
	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/services"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

// BulkFailureHeader leads the failure summary of a bulk update.
const BulkFailureHeader = "Deploy group roles failed to update."

// ActorResolver loads the acting user of a request.
type ActorResolver interface {
	Actor(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type DeployGroupRolesHandler struct {
	svc          services.DeployGroupRoleService
	bulk         services.BulkEditor
	renderer     services.VerificationRenderer
	actors       ActorResolver
	failureLines int
}

func NewDeployGroupRolesHandler(svc services.DeployGroupRoleService, bulk services.BulkEditor, renderer services.VerificationRenderer, actors ActorResolver, failureLines int) *DeployGroupRolesHandler {
	return &DeployGroupRolesHandler{svc: svc, bulk: bulk, renderer: renderer, actors: actors, failureLines: failureLines}
}

// List handles GET /deploy_group_roles?project_id=&deploy_group_id=.
func (h *DeployGroupRolesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	projectID, err := uuidParam(q.Get("project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	groupID, err := uuidParam(q.Get("deploy_group_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid deploy_group_id")
		return
	}
	h.list(w, r, repository.Filter{ProjectID: projectID, DeployGroupID: groupID})
}

// ListByProject handles GET /projects/{project_id}/deploy_group_roles.
func (h *DeployGroupRolesHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	groupID, err := uuidParam(r.URL.Query().Get("deploy_group_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid deploy_group_id")
		return
	}
	h.list(w, r, repository.Filter{ProjectID: &projectID, DeployGroupID: groupID})
}

func (h *DeployGroupRolesHandler) list(w http.ResponseWriter, r *http.Request, f repository.Filter) {
	items, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *DeployGroupRolesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.DeployGroupRoleCreateRequest
	if err := decode(r, &req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.Check(req); err != nil {
		writeError(w, r, err)
		return
	}
	cfg, err := h.svc.Create(r.Context(), req.Input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: cfg})
}

// Show handles GET /deploy_group_roles/{id}. With
// include=verification_template the config is rendered at git_ref/git_sha
// with the full verification bundle; verification=false renders it alone.
func (h *DeployGroupRolesHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	cfg, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := types.ShowResponse{DeployGroupRole: cfg}
	q := r.URL.Query()
	if includes(q.Get("include"), "verification_template") {
		verification := true
		if raw := q.Get("verification"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeErrorStr(w, http.StatusBadRequest, "invalid verification")
				return
			}
			verification = v
		}
		actor, err := h.actor(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rendered, err := h.renderer.RenderConfig(r.Context(), cfg, services.RenderRequest{
			GitRef:       q.Get("git_ref"),
			GitSHA:       q.Get("git_sha"),
			Actor:        actor,
			Verification: verification,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		resp.VerificationTemplate = rendered
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: resp})
}

func (h *DeployGroupRolesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req types.DeployGroupRoleUpdateRequest
	if err := decode(r, &req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	cfg, err := h.svc.Update(r.Context(), id, req.Patch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: cfg})
}

// BulkUpdate handles PUT /projects/{project_id}/deploy_group_roles.
func (h *DeployGroupRolesHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "project_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project_id")
		return
	}
	var req types.BulkUpdateRequest
	if err := decode(r, &req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.Check(req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.bulk.UpdateMany(r.Context(), projectID, req.Patches())
	if err != nil {
		writeError(w, r, err)
		return
	}
	data := types.NewBulkUpdateResponse(res)
	if res.Success() {
		writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: data})
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, types.APIResponse{
		Success: false,
		Data:    data,
		Error: &types.APIError{
			Code:     string(appErr.CodePartialFailure),
			Message:  res.Failure.Error(),
			Messages: res.Failure.Messages(BulkFailureHeader, h.failureLines),
		},
	})
}

func (h *DeployGroupRolesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true})
}

func (h *DeployGroupRolesHandler) actor(r *http.Request) (*models.User, error) {
	uid, ok := middleware.GetUserID(r.Context())
	if !ok || h.actors == nil {
		return nil, nil
	}
	return h.actors.Actor(r.Context(), uid)
}

func includes(list, name string) bool {
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}
