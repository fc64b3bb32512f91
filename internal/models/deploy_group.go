package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeployGroup is a deployment target slice such as a region or cluster
// partition. Deleted groups stay resolvable by id.
type DeployGroup struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name string    `gorm:"not null" json:"name" validate:"required"`
	// NaturalOrder is the human friendly listing key; empty means absent.
	NaturalOrder string         `gorm:"type:varchar(255)" json:"natural_order"`
	Environment  string         `gorm:"type:varchar(64);index" json:"environment"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (g *DeployGroup) HasNaturalOrder() bool { return g != nil && g.NaturalOrder != "" }

// Active reports whether the group has not been soft-deleted.
func (g *DeployGroup) Active() bool { return g != nil && !g.DeletedAt.Valid }
