package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iac-studio/rolecfg/internal/api/types"
	"github.com/iac-studio/rolecfg/internal/services"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

type SeedsHandler struct {
	seeder       services.Seeder
	failureLines int
}

func NewSeedsHandler(seeder services.Seeder, failureLines int) *SeedsHandler {
	return &SeedsHandler{seeder: seeder, failureLines: failureLines}
}

// Seed handles POST /stages/{stage_id}/seed.
func (h *SeedsHandler) Seed(w http.ResponseWriter, r *http.Request) {
	stageID, err := uuid.Parse(chi.URLParam(r, "stage_id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid stage_id")
		return
	}
	res, err := h.seeder.Seed(r.Context(), stageID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := types.NewSeedResponse(res)
	if res.Seeded() {
		writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: data})
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, types.APIResponse{
		Success: false,
		Data:    data,
		Error: &types.APIError{
			Code:     string(appErr.CodePartialFailure),
			Message:  res.Failure.Error(),
			Messages: res.Messages(h.failureLines),
		},
	})
}
