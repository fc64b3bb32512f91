package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/iac-studio/rolecfg/internal/models"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"gorm.io/gorm"
)

type DeployGroupRepository interface {
	BaseRepository[models.DeployGroup]
	// GetByIDWithDeleted resolves soft-deleted groups too.
	GetByIDWithDeleted(ctx context.Context, id uuid.UUID, dest *models.DeployGroup) error
	GetByName(ctx context.Context, name string, dest *models.DeployGroup) error
}

type deployGroupRepository struct {
	BaseRepository[models.DeployGroup]
	db *gorm.DB
}

func NewDeployGroupRepository(db *gorm.DB) DeployGroupRepository {
	return &deployGroupRepository{BaseRepository: NewBaseRepository[models.DeployGroup](db, "deploy group"), db: db}
}

func (r *deployGroupRepository) GetByIDWithDeleted(ctx context.Context, id uuid.UUID, dest *models.DeployGroup) error {
	if err := r.db.WithContext(ctx).Unscoped().First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, fmt.Sprintf("deploy group %s not found", id))
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get deploy group failed")
	}
	return nil
}

func (r *deployGroupRepository) GetByName(ctx context.Context, name string, dest *models.DeployGroup) error {
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "deploy group "+name+" not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get deploy group by name failed")
	}
	return nil
}
