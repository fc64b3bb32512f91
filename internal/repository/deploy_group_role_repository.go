package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iac-studio/rolecfg/internal/models"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

const (
	pgUniqueViolation  = "23505"
	takenMessage       = "has already been taken for this project and deploy group"
	foreignRoleMessage = "does not belong to the project"
)

// Filter narrows a config listing. Nil fields are not applied.
type Filter struct {
	ProjectID     *uuid.UUID
	DeployGroupID *uuid.UUID
}

// DeployGroupRoleRepository is the config store for resource configs.
type DeployGroupRoleRepository interface {
	BaseRepository[models.DeployGroupRole]
	// CreateValidated validates and inserts d. Invalid or duplicate configs,
	// and configs whose role belongs to another project, yield an invalid
	// AppError wrapping a *ValidationError.
	CreateValidated(ctx context.Context, d *models.DeployGroupRole) error
	// UpdateValidated validates and saves the resource fields of an existing d.
	UpdateValidated(ctx context.Context, d *models.DeployGroupRole) error
	// Query returns configs with project, role and deploy group loaded, in
	// listing order. Soft-deleted deploy groups are included.
	Query(ctx context.Context, f Filter) ([]models.DeployGroupRole, error)
	GetWithAssociations(ctx context.Context, id uuid.UUID, dest *models.DeployGroupRole) error
	// ExistingPairs returns the (deploy group, role) pairs already configured
	// for the project among the given deploy groups.
	ExistingPairs(ctx context.Context, projectID uuid.UUID, deployGroupIDs []uuid.UUID) (map[models.Pair]bool, error)
	Rules() models.ValidationRules
}

type deployGroupRoleRepository struct {
	BaseRepository[models.DeployGroupRole]
	db    *gorm.DB
	rules models.ValidationRules
}

func NewDeployGroupRoleRepository(db *gorm.DB, rules models.ValidationRules) DeployGroupRoleRepository {
	return &deployGroupRoleRepository{
		BaseRepository: NewBaseRepository[models.DeployGroupRole](db, "deploy group role"),
		db:             db,
		rules:          rules,
	}
}

func (r *deployGroupRoleRepository) Rules() models.ValidationRules { return r.rules }

func (r *deployGroupRoleRepository) CreateValidated(ctx context.Context, d *models.DeployGroupRole) error {
	verr := d.Validate(r.rules)
	if verr.Empty() {
		owned, err := r.roleInProject(ctx, d)
		if err != nil {
			return err
		}
		if !owned {
			verr.Add("kubernetes_role_id", foreignRoleMessage)
		}
	}
	if verr.Empty() {
		taken, err := r.tripleTaken(ctx, d)
		if err != nil {
			return err
		}
		if taken {
			verr.Add("kubernetes_role_id", takenMessage)
		}
	}
	if !verr.Empty() {
		return appErr.Wrap(verr, appErr.CodeInvalid, "invalid deploy group role")
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(d).Error; err != nil {
		if isUniqueViolation(err) {
			verr.Add("kubernetes_role_id", takenMessage)
			return appErr.Wrap(verr, appErr.CodeInvalid, "invalid deploy group role")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "create deploy group role failed")
	}
	return nil
}

func (r *deployGroupRoleRepository) UpdateValidated(ctx context.Context, d *models.DeployGroupRole) error {
	if d.ID == uuid.Nil {
		return appErr.New(appErr.CodeInvalid, "deploy group role has no id")
	}
	if verr := d.Validate(r.rules); !verr.Empty() {
		return appErr.Wrap(verr, appErr.CodeInvalid, "invalid deploy group role")
	}

	res := r.db.WithContext(ctx).Model(&models.DeployGroupRole{}).Where("id = ?", d.ID).
		Select("replicas", "requests_cpu", "limits_cpu", "requests_memory", "limits_memory",
			"no_cpu_limit", "delete_resource", "updated_at").
		Updates(d)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update deploy group role failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, "deploy group role "+d.ID.String()+" not found")
	}
	return nil
}

func (r *deployGroupRoleRepository) Query(ctx context.Context, f Filter) ([]models.DeployGroupRole, error) {
	q := r.withAssociations(ctx)
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.DeployGroupID != nil {
		q = q.Where("deploy_group_id = ?", *f.DeployGroupID)
	}

	var out []models.DeployGroupRole
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list deploy group roles failed")
	}
	models.SortForListing(out)
	return out, nil
}

func (r *deployGroupRoleRepository) GetWithAssociations(ctx context.Context, id uuid.UUID, dest *models.DeployGroupRole) error {
	if err := r.withAssociations(ctx).First(dest, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "deploy group role "+id.String()+" not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get deploy group role failed")
	}
	return nil
}

func (r *deployGroupRoleRepository) ExistingPairs(ctx context.Context, projectID uuid.UUID, deployGroupIDs []uuid.UUID) (map[models.Pair]bool, error) {
	out := make(map[models.Pair]bool)
	if len(deployGroupIDs) == 0 {
		return out, nil
	}

	var rows []models.DeployGroupRole
	err := r.db.WithContext(ctx).
		Select("deploy_group_id", "kubernetes_role_id").
		Where("project_id = ? AND deploy_group_id IN ?", projectID, deployGroupIDs).
		Find(&rows).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "load existing deploy group roles failed")
	}
	for i := range rows {
		out[rows[i].Pair()] = true
	}
	return out, nil
}

func (r *deployGroupRoleRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Project", unscoped).
		Preload("Role", unscoped).
		Preload("DeployGroup", unscoped)
}

func (r *deployGroupRoleRepository) roleInProject(ctx context.Context, d *models.DeployGroupRole) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Role{}).
		Where("id = ? AND project_id = ?", d.KubernetesRoleID, d.ProjectID).
		Count(&count).Error
	if err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check deploy group role project failed")
	}
	return count > 0, nil
}

func (r *deployGroupRoleRepository) tripleTaken(ctx context.Context, d *models.DeployGroupRole) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.DeployGroupRole{}).
		Where("project_id = ? AND deploy_group_id = ? AND kubernetes_role_id = ?",
			d.ProjectID, d.DeployGroupID, d.KubernetesRoleID)
	if d.ID != uuid.Nil {
		q = q.Where("id <> ?", d.ID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "check deploy group role uniqueness failed")
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
