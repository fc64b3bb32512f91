package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

// SeedFailureHeader leads the failure summary of a seed.
const SeedFailureHeader = "Roles failed to seed, fill them in manually."

// SeedItem is one attempted (deploy group, role) pair.
type SeedItem struct {
	Config          *models.DeployGroupRole `json:"deploy_group_role,omitempty"`
	RoleName        string                  `json:"role"`
	DeployGroupName string                  `json:"deploy_group"`
	Err             error                   `json:"-"`
}

func (i SeedItem) Persisted() bool { return i.Err == nil }

type SeedResult struct {
	Items   []SeedItem
	Failure *appErr.PartialBatchFailure
}

// Seeded reports whether every attempted pair was persisted.
func (r *SeedResult) Seeded() bool { return r.Failure == nil }

// Messages renders the failure summary with at most limit detail lines. It is
// empty when the seed succeeded.
func (r *SeedResult) Messages(limit int) []string {
	if r.Seeded() {
		return nil
	}
	return r.Failure.Messages(SeedFailureHeader, limit)
}

type Seeder interface {
	// Seed creates a config for every (deploy group, role) pair of the stage
	// that has none yet. Every missing pair is attempted; item failures are
	// reported in the result, not as an error.
	Seed(ctx context.Context, stageID uuid.UUID) (*SeedResult, error)
}

type seeder struct {
	stages  repository.StageRepository
	roles   repository.RoleRepository
	configs repository.DeployGroupRoleRepository
}

func NewSeeder(stages repository.StageRepository, roles repository.RoleRepository, configs repository.DeployGroupRoleRepository) Seeder {
	return &seeder{stages: stages, roles: roles, configs: configs}
}

var _ Seeder = (*seeder)(nil)

func (s *seeder) Seed(ctx context.Context, stageID uuid.UUID) (*SeedResult, error) {
	logger.L().Info("seed deploy group roles", zap.String("stage_id", stageID.String()))

	var stage models.Stage
	if err := s.stages.GetWithDeployGroups(ctx, stageID, &stage); err != nil {
		return nil, err
	}
	roles, err := s.roles.ListActiveByProject(ctx, stage.ProjectID)
	if err != nil {
		return nil, err
	}

	groupIDs := make([]uuid.UUID, 0, len(stage.DeployGroups))
	for _, g := range stage.DeployGroups {
		groupIDs = append(groupIDs, g.ID)
	}
	existing, err := s.configs.ExistingPairs(ctx, stage.ProjectID, groupIDs)
	if err != nil {
		return nil, err
	}

	result := &SeedResult{}
	var failures []appErr.ItemFailure
	for gi := range stage.DeployGroups {
		group := &stage.DeployGroups[gi]
		for ri := range roles {
			role := &roles[ri]
			pair := models.Pair{DeployGroupID: group.ID, RoleID: role.ID}
			if existing[pair] {
				continue
			}

			item := s.seedPair(ctx, stage.ProjectID, group, role)
			result.Items = append(result.Items, item)
			if item.Err != nil {
				failures = append(failures, appErr.ItemFailure{
					Key:   group.ID.String() + "/" + role.ID.String(),
					Label: fmt.Sprintf("%s for %s", role.Name, group.Name),
					Err:   item.Err,
				})
			}
		}
	}

	if len(failures) > 0 {
		result.Failure = &appErr.PartialBatchFailure{Op: "seed", Attempted: len(result.Items), Items: failures}
		logger.L().Warn("seed finished with failures", zap.String("stage_id", stageID.String()),
			zap.Int("attempted", len(result.Items)), zap.Int("failed", len(failures)))
		return result, nil
	}
	logger.L().Info("seed finished", zap.String("stage_id", stageID.String()), zap.Int("created", len(result.Items)))
	return result, nil
}

func (s *seeder) seedPair(ctx context.Context, projectID uuid.UUID, group *models.DeployGroup, role *models.Role) SeedItem {
	item := SeedItem{RoleName: role.Name, DeployGroupName: group.Name}

	declared, err := role.DeclaredDefaults()
	if err != nil {
		item.Err = appErr.Wrap(err, appErr.CodeInvalid, "role defaults are unreadable")
		return item
	}

	cfg := &models.DeployGroupRole{
		ProjectID:        projectID,
		DeployGroupID:    group.ID,
		KubernetesRoleID: role.ID,
	}
	cfg.ApplyResources(declared.Resolve(models.TypeDefaults))
	if err := s.configs.CreateValidated(ctx, cfg); err != nil {
		item.Err = err
		return item
	}
	cfg.DeployGroup = group
	cfg.Role = role
	item.Config = cfg
	return item
}
