package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	appErr "github.com/iac-studio/rolecfg/pkg/errors"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

const (
	ExampleProjectName   = "Example-kubernetes"
	ExampleRepositoryURL = "https://github.com/samson-test-org/example-kubernetes.git"
	ExampleDeployGroup   = "GroupK"
	ExampleStage         = "Master"
	ExampleServiceName   = "example-server"
)

// ExampleData is what LoadExample created.
type ExampleData struct {
	Project     models.Project
	DeployGroup models.DeployGroup
	Stage       models.Stage
	Roles       []models.Role
	Configs     []models.DeployGroupRole
}

type ExampleLoader interface {
	// Load creates a small local setup: one project with a migrate and a
	// server role, one deploy group, a Master stage and a config per role.
	// Nothing is written when any step fails.
	Load(ctx context.Context) (*ExampleData, error)
}

type exampleLoader struct {
	tx repository.Transactor
}

func NewExampleLoader(tx repository.Transactor) ExampleLoader {
	return &exampleLoader{tx: tx}
}

func (l *exampleLoader) Load(ctx context.Context) (*ExampleData, error) {
	logger.L().Info("load example data", zap.String("project", ExampleProjectName))

	var out ExampleData
	err := l.tx.InTx(ctx, func(repos repository.Set) error {
		var existing models.Project
		err := repos.Projects.GetByName(ctx, ExampleProjectName, &existing)
		switch {
		case err == nil:
			return appErr.New(appErr.CodeConflict, "example project already exists")
		case !appErr.IsCode(err, appErr.CodeNotFound):
			return err
		}

		out.Project = models.Project{
			Name:          ExampleProjectName,
			Permalink:     "example-kubernetes",
			RepositoryURL: ExampleRepositoryURL,
		}
		if err := repos.Projects.Create(ctx, &out.Project); err != nil {
			return err
		}

		out.DeployGroup = models.DeployGroup{Name: ExampleDeployGroup, NaturalOrder: "groupk", Environment: "master"}
		if err := repos.DeployGroups.Create(ctx, &out.DeployGroup); err != nil {
			return err
		}

		out.Stage = models.Stage{ProjectID: out.Project.ID, Name: ExampleStage, Permalink: "master"}
		if err := repos.Stages.Create(ctx, &out.Stage); err != nil {
			return err
		}
		if err := repos.Stages.AttachDeployGroups(ctx, &out.Stage, []models.DeployGroup{out.DeployGroup}); err != nil {
			return err
		}

		for _, spec := range []struct {
			name     string
			service  string
			replicas int
		}{
			{name: "migrate", replicas: 1},
			{name: "server", service: ExampleServiceName, replicas: 2},
		} {
			role := models.Role{ProjectID: out.Project.ID, Name: spec.name, ServiceName: spec.service}
			if err := repos.Roles.Create(ctx, &role); err != nil {
				return err
			}
			out.Roles = append(out.Roles, role)

			cfg := models.DeployGroupRole{
				ProjectID:        out.Project.ID,
				DeployGroupID:    out.DeployGroup.ID,
				KubernetesRoleID: role.ID,
			}
			cfg.ApplyResources(models.Resources{
				Replicas:       spec.replicas,
				RequestsCPU:    0.1,
				LimitsCPU:      0.3,
				RequestsMemory: 100,
				LimitsMemory:   300,
			})
			if err := repos.Configs.CreateValidated(ctx, &cfg); err != nil {
				return err
			}
			out.Configs = append(out.Configs, cfg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Info("example data loaded", zap.String("project_id", out.Project.ID.String()),
		zap.String("stage_id", out.Stage.ID.String()))
	return &out, nil
}
