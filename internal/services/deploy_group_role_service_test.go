package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
)

type serviceFixture struct {
	configs *mockConfigRepo
	roles   *mockRoleRepo
	groups  *mockDeployGroupRepo
	svc     DeployGroupRoleService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{configs: &mockConfigRepo{}, roles: &mockRoleRepo{}, groups: &mockDeployGroupRepo{}}
	f.configs.On("Rules").Return(models.ValidationRules{}).Maybe()
	f.svc = NewDeployGroupRoleService(f.configs, f.roles, f.groups)
	return f
}

func (f *serviceFixture) stubRole(role models.Role) {
	f.roles.On("GetByID", mock.Anything, role.ID, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*models.Role) = role }).
		Return(nil)
}

func (f *serviceFixture) stubGroup(group models.DeployGroup) {
	f.groups.On("GetByIDWithDeleted", mock.Anything, group.ID, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*models.DeployGroup) = group }).
		Return(nil)
}

func TestCreateStartsFromRoleDefaults(t *testing.T) {
	f := newServiceFixture()
	projectID := uuid.New()
	limit := 2.0
	role := models.Role{ID: uuid.New(), ProjectID: projectID, Name: "server"}
	require.NoError(t, role.SetDefaults(models.RoleDefaults{LimitsCPU: &limit}))
	group := models.DeployGroup{ID: uuid.New(), Name: "pod1"}
	f.stubRole(role)
	f.stubGroup(group)

	var created *models.DeployGroupRole
	f.configs.On("CreateValidated", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.DeployGroupRole)
			created.ID = uuid.New()
		}).
		Return(nil)
	f.configs.On("GetWithAssociations", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { *args.Get(2).(*models.DeployGroupRole) = *created }).
		Return(nil)

	got, err := f.svc.Create(context.Background(), CreateInput{
		ProjectID:        projectID,
		DeployGroupID:    group.ID,
		KubernetesRoleID: role.ID,
		Values:           ConfigPatch{Replicas: intPtr(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Replicas)
	require.NotNil(t, got.LimitsCPU)
	assert.InDelta(t, 2.0, *got.LimitsCPU, 1e-9)
	assert.Equal(t, models.TypeDefaults.LimitsMemory, got.LimitsMemory)
}

func TestCreateRejectsRoleOfAnotherProject(t *testing.T) {
	f := newServiceFixture()
	role := models.Role{ID: uuid.New(), ProjectID: uuid.New(), Name: "server"}
	group := models.DeployGroup{ID: uuid.New(), Name: "pod1"}
	f.stubRole(role)
	f.stubGroup(group)

	_, err := f.svc.Create(context.Background(), CreateInput{
		ProjectID:        uuid.New(),
		DeployGroupID:    group.ID,
		KubernetesRoleID: role.ID,
	})
	verr, ok := ValidationErrorOf(err)
	require.True(t, ok)
	assert.Equal(t, []string{"does not belong to the project"}, verr.On("kubernetes_role_id"))
	f.configs.AssertNotCalled(t, "CreateValidated", mock.Anything, mock.Anything)
}

func TestCreateRejectsUnknownReferences(t *testing.T) {
	f := newServiceFixture()
	roleID, groupID := uuid.New(), uuid.New()
	f.roles.On("GetByID", mock.Anything, roleID, mock.Anything).Return(appErr.New(appErr.CodeNotFound, "role not found"))
	f.groups.On("GetByIDWithDeleted", mock.Anything, groupID, mock.Anything).Return(appErr.New(appErr.CodeNotFound, "deploy group not found"))

	_, err := f.svc.Create(context.Background(), CreateInput{
		ProjectID:        uuid.New(),
		DeployGroupID:    groupID,
		KubernetesRoleID: roleID,
		Values:           ConfigPatch{Replicas: intPtr(-1)},
	})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	verr, ok := ValidationErrorOf(err)
	require.True(t, ok)
	assert.Equal(t, []string{"does not exist"}, verr.On("kubernetes_role_id"))
	assert.Equal(t, []string{"does not exist"}, verr.On("deploy_group_id"))
	assert.NotEmpty(t, verr.On("replicas"))
}

func TestCreatePropagatesDuplicate(t *testing.T) {
	f := newServiceFixture()
	projectID := uuid.New()
	role := models.Role{ID: uuid.New(), ProjectID: projectID, Name: "server"}
	group := models.DeployGroup{ID: uuid.New(), Name: "pod1"}
	f.stubRole(role)
	f.stubGroup(group)

	verr := &appErr.ValidationError{}
	verr.Add("kubernetes_role_id", "has already been taken for this project and deploy group")
	f.configs.On("CreateValidated", mock.Anything, mock.Anything).Return(appErr.Wrap(verr, appErr.CodeInvalid, "invalid"))

	_, err := f.svc.Create(context.Background(), CreateInput{ProjectID: projectID, DeployGroupID: group.ID, KubernetesRoleID: role.ID})
	got, ok := ValidationErrorOf(err)
	require.True(t, ok)
	assert.Same(t, verr, got)
}

func TestUpdateAppliesPatch(t *testing.T) {
	f := newServiceFixture()
	cfg := storedConfig(uuid.New(), "pod1", "server")
	stubConfig(f.configs, cfg)
	f.configs.On("UpdateValidated", mock.Anything, mock.MatchedBy(func(d *models.DeployGroupRole) bool {
		return d.ID == cfg.ID && d.DeleteResource && d.Replicas == cfg.Replicas
	})).Return(nil)

	got, err := f.svc.Update(context.Background(), cfg.ID, ConfigPatch{DeleteResource: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.DeleteResource)
	f.configs.AssertExpectations(t)
}

func TestListPassesFilter(t *testing.T) {
	f := newServiceFixture()
	projectID := uuid.New()
	filter := repository.Filter{ProjectID: &projectID}
	f.configs.On("Query", mock.Anything, filter).Return([]models.DeployGroupRole{storedConfig(projectID, "pod1", "server")}, nil)

	items, err := f.svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestDeleteNotFound(t *testing.T) {
	f := newServiceFixture()
	id := uuid.New()
	f.configs.On("Delete", mock.Anything, id).Return(appErr.New(appErr.CodeNotFound, "not found"))
	assert.True(t, appErr.IsCode(f.svc.Delete(context.Background(), id), appErr.CodeNotFound))
}
