package types

import (
	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/services"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	// Fields lists field-level validation failures.
	Fields []appErr.FieldError `json:"fields,omitempty"`
	// Messages is the bounded, human readable summary of a batch failure.
	Messages []string `json:"messages,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

// ShowResponse is a config with its optional verification render.
type ShowResponse struct {
	DeployGroupRole      *models.DeployGroupRole  `json:"deploy_group_role"`
	VerificationTemplate *services.RenderedConfig `json:"verification_template,omitempty"`
}

type BatchItem struct {
	Key             string                  `json:"key"`
	DeployGroupRole *models.DeployGroupRole `json:"deploy_group_role,omitempty"`
	Error           string                  `json:"error,omitempty"`
}

type SeedResponse struct {
	Seeded bool        `json:"seeded"`
	Items  []BatchItem `json:"items"`
}

type BulkUpdateResponse struct {
	Success bool        `json:"success"`
	Items   []BatchItem `json:"items"`
}

func itemError(err error) string {
	if err == nil {
		return ""
	}
	return appErr.ItemFailure{Err: err}.Cause()
}

func NewSeedResponse(res *services.SeedResult) SeedResponse {
	out := SeedResponse{Seeded: res.Seeded(), Items: make([]BatchItem, 0, len(res.Items))}
	for _, it := range res.Items {
		out.Items = append(out.Items, BatchItem{
			Key:             it.RoleName + " for " + it.DeployGroupName,
			DeployGroupRole: it.Config,
			Error:           itemError(it.Err),
		})
	}
	return out
}

func NewBulkUpdateResponse(res *services.BulkResult) BulkUpdateResponse {
	out := BulkUpdateResponse{Success: res.Success(), Items: make([]BatchItem, 0, len(res.Items))}
	for _, it := range res.Items {
		item := BatchItem{Key: it.ID.String(), Error: itemError(it.Err)}
		if it.Err == nil {
			item.DeployGroupRole = it.Config
		}
		out.Items = append(out.Items, item)
	}
	return out
}
