package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/services"
)

type mockConfigService struct{ mock.Mock }

func (m *mockConfigService) List(ctx context.Context, f repository.Filter) ([]models.DeployGroupRole, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.DeployGroupRole)
	return items, args.Error(1)
}

func (m *mockConfigService) Get(ctx context.Context, id uuid.UUID) (*models.DeployGroupRole, error) {
	args := m.Called(ctx, id)
	cfg, _ := args.Get(0).(*models.DeployGroupRole)
	return cfg, args.Error(1)
}

func (m *mockConfigService) Create(ctx context.Context, input services.CreateInput) (*models.DeployGroupRole, error) {
	args := m.Called(ctx, input)
	cfg, _ := args.Get(0).(*models.DeployGroupRole)
	return cfg, args.Error(1)
}

func (m *mockConfigService) Update(ctx context.Context, id uuid.UUID, patch services.ConfigPatch) (*models.DeployGroupRole, error) {
	args := m.Called(ctx, id, patch)
	cfg, _ := args.Get(0).(*models.DeployGroupRole)
	return cfg, args.Error(1)
}

func (m *mockConfigService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockBulkEditor struct{ mock.Mock }

func (m *mockBulkEditor) UpdateMany(ctx context.Context, projectID uuid.UUID, patches map[uuid.UUID]services.ConfigPatch) (*services.BulkResult, error) {
	args := m.Called(ctx, projectID, patches)
	res, _ := args.Get(0).(*services.BulkResult)
	return res, args.Error(1)
}

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) Render(ctx context.Context, configID uuid.UUID, req services.RenderRequest) (*services.RenderedConfig, error) {
	args := m.Called(ctx, configID, req)
	out, _ := args.Get(0).(*services.RenderedConfig)
	return out, args.Error(1)
}

func (m *mockRenderer) RenderConfig(ctx context.Context, cfg *models.DeployGroupRole, req services.RenderRequest) (*services.RenderedConfig, error) {
	args := m.Called(ctx, cfg, req)
	out, _ := args.Get(0).(*services.RenderedConfig)
	return out, args.Error(1)
}

type mockSeeder struct{ mock.Mock }

func (m *mockSeeder) Seed(ctx context.Context, stageID uuid.UUID) (*services.SeedResult, error) {
	args := m.Called(ctx, stageID)
	res, _ := args.Get(0).(*services.SeedResult)
	return res, args.Error(1)
}

type mockActors struct{ mock.Mock }

func (m *mockActors) Actor(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

var (
	_ services.DeployGroupRoleService = (*mockConfigService)(nil)
	_ services.BulkEditor             = (*mockBulkEditor)(nil)
	_ services.VerificationRenderer   = (*mockRenderer)(nil)
	_ services.Seeder                 = (*mockSeeder)(nil)
	_ ActorResolver                   = (*mockActors)(nil)
)
