package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

type CreateInput struct {
	ProjectID        uuid.UUID
	DeployGroupID    uuid.UUID
	KubernetesRoleID uuid.UUID
	// Values override the role's defaults.
	Values ConfigPatch
}

// DeployGroupRoleService is the single-item surface over resource configs.
type DeployGroupRoleService interface {
	List(ctx context.Context, f repository.Filter) ([]models.DeployGroupRole, error)
	Get(ctx context.Context, id uuid.UUID) (*models.DeployGroupRole, error)
	Create(ctx context.Context, input CreateInput) (*models.DeployGroupRole, error)
	Update(ctx context.Context, id uuid.UUID, patch ConfigPatch) (*models.DeployGroupRole, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type deployGroupRoleService struct {
	configs repository.DeployGroupRoleRepository
	roles   repository.RoleRepository
	groups  repository.DeployGroupRepository
}

func NewDeployGroupRoleService(configs repository.DeployGroupRoleRepository, roles repository.RoleRepository, groups repository.DeployGroupRepository) DeployGroupRoleService {
	return &deployGroupRoleService{configs: configs, roles: roles, groups: groups}
}

var _ DeployGroupRoleService = (*deployGroupRoleService)(nil)

func (s *deployGroupRoleService) List(ctx context.Context, f repository.Filter) ([]models.DeployGroupRole, error) {
	fields := []zap.Field{}
	if f.ProjectID != nil {
		fields = append(fields, zap.String("project_id", f.ProjectID.String()))
	}
	if f.DeployGroupID != nil {
		fields = append(fields, zap.String("deploy_group_id", f.DeployGroupID.String()))
	}
	logger.L().Info("list deploy group roles", fields...)
	return s.configs.Query(ctx, f)
}

func (s *deployGroupRoleService) Get(ctx context.Context, id uuid.UUID) (*models.DeployGroupRole, error) {
	logger.L().Info("get deploy group role", zap.String("deploy_group_role_id", id.String()))
	var cfg models.DeployGroupRole
	if err := s.configs.GetWithAssociations(ctx, id, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Create starts from the role's declared defaults, applies input.Values and
// stores the result.
func (s *deployGroupRoleService) Create(ctx context.Context, input CreateInput) (*models.DeployGroupRole, error) {
	logger.L().Info("create deploy group role", zap.String("project_id", input.ProjectID.String()),
		zap.String("deploy_group_id", input.DeployGroupID.String()), zap.String("kubernetes_role_id", input.KubernetesRoleID.String()))

	cfg := &models.DeployGroupRole{
		ProjectID:        input.ProjectID,
		DeployGroupID:    input.DeployGroupID,
		KubernetesRoleID: input.KubernetesRoleID,
	}
	resources := models.TypeDefaults

	verr := &appErr.ValidationError{}
	if input.KubernetesRoleID != uuid.Nil {
		var role models.Role
		err := s.roles.GetByID(ctx, input.KubernetesRoleID, &role)
		switch {
		case appErr.IsCode(err, appErr.CodeNotFound):
			verr.Add("kubernetes_role_id", "does not exist")
		case err != nil:
			return nil, err
		case input.ProjectID != uuid.Nil && role.ProjectID != input.ProjectID:
			verr.Add("kubernetes_role_id", "does not belong to the project")
		default:
			declared, err := role.DeclaredDefaults()
			if err != nil {
				return nil, appErr.Wrap(err, appErr.CodeInvalid, "role defaults are unreadable")
			}
			resources = declared.Resolve(models.TypeDefaults)
		}
	}
	if input.DeployGroupID != uuid.Nil {
		var group models.DeployGroup
		err := s.groups.GetByIDWithDeleted(ctx, input.DeployGroupID, &group)
		switch {
		case appErr.IsCode(err, appErr.CodeNotFound):
			verr.Add("deploy_group_id", "does not exist")
		case err != nil:
			return nil, err
		}
	}

	cfg.ApplyResources(resources)
	input.Values.Apply(cfg)
	if !verr.Empty() {
		if more := cfg.Validate(s.configs.Rules()); !more.Empty() {
			verr.Fields = append(verr.Fields, more.Fields...)
		}
		return nil, appErr.Wrap(verr, appErr.CodeInvalid, "invalid deploy group role")
	}

	if err := s.configs.CreateValidated(ctx, cfg); err != nil {
		return nil, err
	}
	logger.L().Info("deploy group role created", zap.String("deploy_group_role_id", cfg.ID.String()))
	return s.Get(ctx, cfg.ID)
}

func (s *deployGroupRoleService) Update(ctx context.Context, id uuid.UUID, patch ConfigPatch) (*models.DeployGroupRole, error) {
	logger.L().Info("update deploy group role", zap.String("deploy_group_role_id", id.String()))
	cfg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(cfg)
	if err := s.configs.UpdateValidated(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *deployGroupRoleService) Delete(ctx context.Context, id uuid.UUID) error {
	logger.L().Info("delete deploy group role", zap.String("deploy_group_role_id", id.String()))
	return s.configs.Delete(ctx, id)
}

// ValidationErrorOf returns the field errors carried by err, if any.
func ValidationErrorOf(err error) (*appErr.ValidationError, bool) {
	var verr *appErr.ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
