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

type StageRepository interface {
	BaseRepository[models.Stage]
	// GetWithDeployGroups loads the stage, its project and its live deploy groups.
	GetWithDeployGroups(ctx context.Context, id uuid.UUID, dest *models.Stage) error
	AttachDeployGroups(ctx context.Context, stage *models.Stage, groups []models.DeployGroup) error
}

type stageRepository struct {
	BaseRepository[models.Stage]
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) StageRepository {
	return &stageRepository{BaseRepository: NewBaseRepository[models.Stage](db, "stage"), db: db}
}

func (r *stageRepository) GetWithDeployGroups(ctx context.Context, id uuid.UUID, dest *models.Stage) error {
	err := r.db.WithContext(ctx).
		Preload("Project").
		Preload("DeployGroups", func(db *gorm.DB) *gorm.DB { return db.Order("natural_order ASC, name ASC") }).
		First(dest, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, fmt.Sprintf("stage %s not found", id))
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get stage failed")
	}
	if dest.Project == nil {
		return appErr.New(appErr.CodeNotFound, fmt.Sprintf("project of stage %s not found", id))
	}
	return nil
}

func (r *stageRepository) AttachDeployGroups(ctx context.Context, stage *models.Stage, groups []models.DeployGroup) error {
	if err := r.db.WithContext(ctx).Model(stage).Association("DeployGroups").Append(groups); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "attach deploy groups failed")
	}
	return nil
}
