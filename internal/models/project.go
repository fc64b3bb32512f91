package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project owns roles and stages. The resolver only reads projects.
type Project struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name            string         `gorm:"not null;uniqueIndex" json:"name" validate:"required"`
	Permalink       string         `gorm:"not null;uniqueIndex" json:"permalink" validate:"required"`
	RepositoryURL   string         `gorm:"type:text" json:"repository_url"`
	ImageRepository string         `gorm:"type:text" json:"image_repository"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}
