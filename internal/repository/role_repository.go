package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/iac-studio/rolecfg/internal/models"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"gorm.io/gorm"
)

type RoleRepository interface {
	BaseRepository[models.Role]
	ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.Role, error)
	GetByName(ctx context.Context, projectID uuid.UUID, name string, dest *models.Role) error
}

type roleRepository struct {
	BaseRepository[models.Role]
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{BaseRepository: NewBaseRepository[models.Role](db, "role"), db: db}
}

// ListActiveByProject returns the project's roles that have not been deleted.
func (r *roleRepository) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]models.Role, error) {
	var out []models.Role
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list roles failed")
	}
	return out, nil
}

func (r *roleRepository) GetByName(ctx context.Context, projectID uuid.UUID, name string, dest *models.Role) error {
	if err := r.db.WithContext(ctx).Where("project_id = ? AND name = ?", projectID, name).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "role "+name+" not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get role by name failed")
	}
	return nil
}
