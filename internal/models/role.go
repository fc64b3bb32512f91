package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a workload kind of a project, e.g. "server" or "migrate".
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	Name        string    `gorm:"not null" json:"name" validate:"required"`
	ServiceName string    `gorm:"type:varchar(255)" json:"service_name"`
	ConfigFile  string    `gorm:"type:text" json:"config_file"`
	// Defaults holds the declared RoleDefaults as JSON.
	Defaults  datatypes.JSON `gorm:"type:jsonb" json:"defaults"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Role) TableName() string { return "kubernetes_roles" }

// RoleDefaults are the resource values a role declares for new configs.
// Nil fields fall back to TypeDefaults.
type RoleDefaults struct {
	Replicas       *int     `json:"replicas,omitempty"`
	RequestsCPU    *float64 `json:"requests_cpu,omitempty"`
	LimitsCPU      *float64 `json:"limits_cpu,omitempty"`
	RequestsMemory *int     `json:"requests_memory,omitempty"`
	LimitsMemory   *int     `json:"limits_memory,omitempty"`
}

// Resources is a complete set of resource values.
type Resources struct {
	Replicas       int
	RequestsCPU    float64
	LimitsCPU      float64
	RequestsMemory int
	LimitsMemory   int
}

// TypeDefaults apply when a role declares nothing.
var TypeDefaults = Resources{
	Replicas:       1,
	RequestsCPU:    0.1,
	LimitsCPU:      0.3,
	RequestsMemory: 100,
	LimitsMemory:   300,
}

// DeclaredDefaults decodes the role's declared defaults.
func (r *Role) DeclaredDefaults() (RoleDefaults, error) {
	var d RoleDefaults
	if len(r.Defaults) == 0 || string(r.Defaults) == "null" {
		return d, nil
	}
	if err := json.Unmarshal(r.Defaults, &d); err != nil {
		return d, fmt.Errorf("decode defaults of role %s: %w", r.Name, err)
	}
	return d, nil
}

// SetDefaults encodes d into the Defaults column.
func (r *Role) SetDefaults(d RoleDefaults) error {
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	r.Defaults = datatypes.JSON(b)
	return nil
}

// Resolve merges the declared values over base.
func (d RoleDefaults) Resolve(base Resources) Resources {
	out := base
	if d.Replicas != nil {
		out.Replicas = *d.Replicas
	}
	if d.RequestsCPU != nil {
		out.RequestsCPU = *d.RequestsCPU
	}
	if d.LimitsCPU != nil {
		out.LimitsCPU = *d.LimitsCPU
	}
	if d.RequestsMemory != nil {
		out.RequestsMemory = *d.RequestsMemory
	}
	if d.LimitsMemory != nil {
		out.LimitsMemory = *d.LimitsMemory
	}
	return out
}
