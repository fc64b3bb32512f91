package services

import (
	"bytes"
	"context"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

// ConfigPatch holds the editable fields of a config. Nil fields are left
// unchanged. Identity fields are not part of a patch.
type ConfigPatch struct {
	Replicas       *int     `json:"replicas,omitempty"`
	RequestsCPU    *float64 `json:"requests_cpu,omitempty"`
	LimitsCPU      *float64 `json:"limits_cpu,omitempty"`
	RequestsMemory *int     `json:"requests_memory,omitempty"`
	LimitsMemory   *int     `json:"limits_memory,omitempty"`
	NoCPULimit     *bool    `json:"no_cpu_limit,omitempty"`
	DeleteResource *bool    `json:"delete_resource,omitempty"`
}

// Apply copies the set fields onto d.
func (p ConfigPatch) Apply(d *models.DeployGroupRole) {
	if p.Replicas != nil {
		d.Replicas = *p.Replicas
	}
	if p.RequestsCPU != nil {
		d.RequestsCPU = *p.RequestsCPU
	}
	if p.LimitsCPU != nil {
		limit := *p.LimitsCPU
		d.LimitsCPU = &limit
	}
	if p.RequestsMemory != nil {
		d.RequestsMemory = *p.RequestsMemory
	}
	if p.LimitsMemory != nil {
		d.LimitsMemory = *p.LimitsMemory
	}
	if p.NoCPULimit != nil {
		d.NoCPULimit = *p.NoCPULimit
	}
	if p.DeleteResource != nil {
		d.DeleteResource = *p.DeleteResource
	}
}

// BulkItem is the outcome of one patched config.
type BulkItem struct {
	ID     uuid.UUID               `json:"id"`
	Config *models.DeployGroupRole `json:"deploy_group_role,omitempty"`
	Err    error                   `json:"-"`
}

type BulkResult struct {
	Items   []BulkItem
	Failure *appErr.PartialBatchFailure
}

// Success reports whether every item was updated.
func (r *BulkResult) Success() bool { return r.Failure == nil }

type BulkEditor interface {
	// UpdateMany patches the project's configs in ascending id order. Each
	// item is committed on its own; earlier successes are kept when later
	// items fail.
	UpdateMany(ctx context.Context, projectID uuid.UUID, patches map[uuid.UUID]ConfigPatch) (*BulkResult, error)
}

type bulkEditor struct {
	configs repository.DeployGroupRoleRepository
}

func NewBulkEditor(configs repository.DeployGroupRoleRepository) BulkEditor {
	return &bulkEditor{configs: configs}
}

var _ BulkEditor = (*bulkEditor)(nil)

func (e *bulkEditor) UpdateMany(ctx context.Context, projectID uuid.UUID, patches map[uuid.UUID]ConfigPatch) (*BulkResult, error) {
	logger.L().Info("bulk update deploy group roles", zap.String("project_id", projectID.String()), zap.Int("items", len(patches)))
	if projectID == uuid.Nil {
		return nil, appErr.New(appErr.CodeInvalid, "project id is required")
	}

	ids := make([]uuid.UUID, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })

	result := &BulkResult{}
	var failures []appErr.ItemFailure
	for _, id := range ids {
		cfg, err := e.updateOne(ctx, projectID, id, patches[id])
		result.Items = append(result.Items, BulkItem{ID: id, Config: cfg, Err: err})
		if err != nil {
			failures = append(failures, appErr.ItemFailure{Key: id.String(), Label: labelOf(cfg, id), Err: err})
		}
	}

	if len(failures) > 0 {
		result.Failure = &appErr.PartialBatchFailure{Op: "bulk update", Attempted: len(ids), Items: failures}
		logger.L().Warn("bulk update finished with failures", zap.String("project_id", projectID.String()),
			zap.Int("attempted", len(ids)), zap.Int("failed", len(failures)))
	}
	return result, nil
}

func (e *bulkEditor) updateOne(ctx context.Context, projectID, id uuid.UUID, patch ConfigPatch) (*models.DeployGroupRole, error) {
	var cfg models.DeployGroupRole
	if err := e.configs.GetWithAssociations(ctx, id, &cfg); err != nil {
		return nil, err
	}
	if cfg.ProjectID != projectID {
		return nil, appErr.New(appErr.CodeNotFound, "deploy group role "+id.String()+" not found in project")
	}

	patch.Apply(&cfg)
	if err := e.configs.UpdateValidated(ctx, &cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

func labelOf(cfg *models.DeployGroupRole, id uuid.UUID) string {
	if cfg == nil || cfg.Role == nil || cfg.DeployGroup == nil {
		return id.String()
	}
	return cfg.Role.Name + " for " + cfg.DeployGroup.Name
}
