package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Stage deploys a project to a set of deploy groups.
type Stage struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"project_id"`
	Project      *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty" validate:"-"`
	Name         string         `gorm:"not null" json:"name" validate:"required"`
	Permalink    string         `gorm:"not null" json:"permalink"`
	DeployGroups []DeployGroup  `gorm:"many2many:stage_deploy_groups;" json:"deploy_groups,omitempty" validate:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
