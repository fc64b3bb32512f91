package types

import (
	"github.com/google/uuid"

	"github.com/iac-studio/rolecfg/internal/services"
)

// ResourceValues are the editable fields of a deploy group role.
type ResourceValues struct {
	Replicas       *int     `json:"replicas"`
	RequestsCPU    *float64 `json:"requests_cpu"`
	LimitsCPU      *float64 `json:"limits_cpu"`
	RequestsMemory *int     `json:"requests_memory"`
	LimitsMemory   *int     `json:"limits_memory"`
	NoCPULimit     *bool    `json:"no_cpu_limit"`
	DeleteResource *bool    `json:"delete_resource"`
}

func (v ResourceValues) Patch() services.ConfigPatch {
	return services.ConfigPatch{
		Replicas:       v.Replicas,
		RequestsCPU:    v.RequestsCPU,
		LimitsCPU:      v.LimitsCPU,
		RequestsMemory: v.RequestsMemory,
		LimitsMemory:   v.LimitsMemory,
		NoCPULimit:     v.NoCPULimit,
		DeleteResource: v.DeleteResource,
	}
}

type DeployGroupRoleCreateRequest struct {
	ProjectID        string `json:"project_id" validate:"required,uuid"`
	DeployGroupID    string `json:"deploy_group_id" validate:"required,uuid"`
	KubernetesRoleID string `json:"kubernetes_role_id" validate:"required,uuid"`
	ResourceValues
}

// Input converts a validated request.
func (r DeployGroupRoleCreateRequest) Input() services.CreateInput {
	return services.CreateInput{
		ProjectID:        uuid.MustParse(r.ProjectID),
		DeployGroupID:    uuid.MustParse(r.DeployGroupID),
		KubernetesRoleID: uuid.MustParse(r.KubernetesRoleID),
		Values:           r.Patch(),
	}
}

type DeployGroupRoleUpdateRequest struct {
	ResourceValues
}

// BulkUpdateRequest maps config ids to their new values. Identity fields
// sent along are ignored.
type BulkUpdateRequest struct {
	DeployGroupRoles map[string]ResourceValues `json:"deploy_group_roles" validate:"required,dive,keys,uuid,endkeys"`
}

func (r BulkUpdateRequest) Patches() map[uuid.UUID]services.ConfigPatch {
	out := make(map[uuid.UUID]services.ConfigPatch, len(r.DeployGroupRoles))
	for id, v := range r.DeployGroupRoles {
		out[uuid.MustParse(id)] = v.Patch()
	}
	return out
}
