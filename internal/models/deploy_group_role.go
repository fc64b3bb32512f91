package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

// DeployGroupRole is the resource configuration of one
// (project, deploy group, role) triple.
type DeployGroupRole struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dgr_triple,priority:1" json:"project_id"`
	DeployGroupID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_dgr_triple,priority:2" json:"deploy_group_id"`
	KubernetesRoleID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dgr_triple,priority:3" json:"kubernetes_role_id"`

	Replicas       int      `gorm:"not null;default:0" json:"replicas" validate:"gte=0"`
	RequestsCPU    float64  `gorm:"not null;default:0" json:"requests_cpu" validate:"gte=0"`
	LimitsCPU      *float64 `json:"limits_cpu"`
	RequestsMemory int      `gorm:"not null;default:0" json:"requests_memory" validate:"gte=0"`
	LimitsMemory   int      `gorm:"not null;default:0" json:"limits_memory" validate:"gt=0"`
	NoCPULimit     bool     `gorm:"not null;default:false" json:"no_cpu_limit"`
	DeleteResource bool     `gorm:"not null;default:false" json:"delete_resource"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project     *Project     `gorm:"foreignKey:ProjectID" json:"project,omitempty" validate:"-"`
	DeployGroup *DeployGroup `gorm:"foreignKey:DeployGroupID" json:"deploy_group,omitempty" validate:"-"`
	Role        *Role        `gorm:"foreignKey:KubernetesRoleID" json:"kubernetes_role,omitempty" validate:"-"`
}

func (DeployGroupRole) TableName() string { return "kubernetes_deploy_group_roles" }

// Pair identifies a (deploy group, role) combination within a project.
type Pair struct {
	DeployGroupID uuid.UUID
	RoleID        uuid.UUID
}

func (d *DeployGroupRole) Pair() Pair {
	return Pair{DeployGroupID: d.DeployGroupID, RoleID: d.KubernetesRoleID}
}

// ApplyResources copies a full resource set onto the config.
func (d *DeployGroupRole) ApplyResources(r Resources) {
	d.Replicas = r.Replicas
	d.RequestsCPU = r.RequestsCPU
	limit := r.LimitsCPU
	d.LimitsCPU = &limit
	d.RequestsMemory = r.RequestsMemory
	d.LimitsMemory = r.LimitsMemory
}

// CPULimit returns the effective CPU limit; ok is false when the config runs
// without one.
func (d *DeployGroupRole) CPULimit() (limit float64, ok bool) {
	if d.NoCPULimit || d.LimitsCPU == nil {
		return 0, false
	}
	return *d.LimitsCPU, true
}

// ValidationRules is the capability set resource configs are checked
// against. It is built once from configuration.
type ValidationRules struct {
	AllowNoCPULimit bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the numeric and structural invariants of the config.
// Uniqueness of the triple is the store's concern.
func (d *DeployGroupRole) Validate(rules ValidationRules) *appErr.ValidationError {
	verr := &appErr.ValidationError{}

	if d.ProjectID == uuid.Nil {
		verr.Add("project_id", "can't be blank")
	}
	if d.DeployGroupID == uuid.Nil {
		verr.Add("deploy_group_id", "can't be blank")
	}
	if d.KubernetesRoleID == uuid.Nil {
		verr.Add("kubernetes_role_id", "can't be blank")
	}

	if err := validate.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			verr.Add("", err.Error())
			return verr
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), tagMessage(fe))
		}
	}

	if d.NoCPULimit && !rules.AllowNoCPULimit {
		verr.Add("no_cpu_limit", "is not allowed")
	}
	switch {
	case d.LimitsCPU == nil && !d.NoCPULimit:
		verr.Add("limits_cpu", "can't be blank")
	case d.LimitsCPU != nil && *d.LimitsCPU <= 0 && !d.NoCPULimit:
		verr.Add("limits_cpu", "must be greater than 0")
	}
	if limit, ok := d.CPULimit(); ok && limit > 0 && d.RequestsCPU > limit {
		verr.Add("requests_cpu", "must be less than or equal to the cpu limit")
	}
	if d.LimitsMemory > 0 && d.RequestsMemory > d.LimitsMemory {
		verr.Add("requests_memory", "must be less than or equal to the memory limit")
	}
	return verr
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
