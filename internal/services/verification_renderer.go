package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iac-studio/rolecfg/internal/models"
	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/scm"
	"github.com/iac-studio/rolecfg/internal/template"
	"github.com/iac-studio/rolecfg/pkg/logger"
)

// Templater produces the deployable documents of a release document.
type Templater interface {
	Render(doc template.ReleaseDoc, opts template.Options) (*template.Rendered, error)
}

type RenderRequest struct {
	GitRef       string
	GitSHA       string
	Actor        *models.User
	Verification bool
}

// RenderedConfig is a preview of what a config would deploy.
type RenderedConfig struct {
	Config   *models.DeployGroupRole `json:"deploy_group_role"`
	Revision Revision                `json:"revision"`
	Template *template.Rendered      `json:"template"`
}

type VerificationRenderer interface {
	// Render previews the config with the given id. Nothing is persisted.
	Render(ctx context.Context, configID uuid.UUID, req RenderRequest) (*RenderedConfig, error)
	// RenderConfig previews an already loaded config; Project, Role and
	// DeployGroup must be loaded.
	RenderConfig(ctx context.Context, cfg *models.DeployGroupRole, req RenderRequest) (*RenderedConfig, error)
}

type verificationRenderer struct {
	configs   repository.DeployGroupRoleRepository
	resolver  RevisionResolver
	source    scm.Source
	templates Templater
}

func NewVerificationRenderer(configs repository.DeployGroupRoleRepository, resolver RevisionResolver, source scm.Source, templates Templater) VerificationRenderer {
	return &verificationRenderer{configs: configs, resolver: resolver, source: source, templates: templates}
}

var _ VerificationRenderer = (*verificationRenderer)(nil)

func (r *verificationRenderer) Render(ctx context.Context, configID uuid.UUID, req RenderRequest) (*RenderedConfig, error) {
	logger.L().Info("render verification template", zap.String("deploy_group_role_id", configID.String()),
		zap.String("git_ref", req.GitRef), zap.String("git_sha", req.GitSHA), zap.Bool("verification", req.Verification))

	var cfg models.DeployGroupRole
	if err := r.configs.GetWithAssociations(ctx, configID, &cfg); err != nil {
		return nil, err
	}
	return r.RenderConfig(ctx, &cfg, req)
}

func (r *verificationRenderer) RenderConfig(ctx context.Context, cfg *models.DeployGroupRole, req RenderRequest) (*RenderedConfig, error) {
	var repo scm.Repository
	if r.source != nil && cfg.Project != nil {
		repo = r.source.Repository(cfg.Project.RepositoryURL)
	}

	rev, err := r.resolver.Resolve(ctx, repo, req.GitRef, req.GitSHA)
	if err != nil {
		return nil, err
	}

	release := BuildRelease(cfg, rev, req.Actor)
	rendered, err := r.templates.Render(BuildReleaseDoc(cfg, release), template.Options{Verification: req.Verification})
	if err != nil {
		logger.L().Warn("render template failed", zap.String("deploy_group_role_id", cfg.ID.String()), zap.Error(err))
		return nil, err
	}
	return &RenderedConfig{Config: cfg, Revision: rev, Template: rendered}, nil
}

// BuildRelease assembles the unsaved release of a verification render: no
// builds and the config's deploy group as its only target.
func BuildRelease(cfg *models.DeployGroupRole, rev Revision, actor *models.User) template.Release {
	rel := template.Release{
		GitRef:       rev.Ref,
		GitSHA:       rev.SHA,
		Author:       actorLabel(actor),
		Builds:       []string{},
		DeployGroups: []template.DeployGroup{deployGroupOf(cfg)},
	}
	if cfg.Project != nil {
		rel.ProjectName = cfg.Project.Name
		rel.ProjectPermalink = cfg.Project.Permalink
		rel.ImageRepository = cfg.Project.ImageRepository
	}
	return rel
}

// BuildReleaseDoc scopes release to the config's role and deploy group and
// carries its resource values.
func BuildReleaseDoc(cfg *models.DeployGroupRole, release template.Release) template.ReleaseDoc {
	doc := template.ReleaseDoc{
		Release:        release,
		DeployGroup:    deployGroupOf(cfg),
		Replicas:       cfg.Replicas,
		RequestsCPU:    cfg.RequestsCPU,
		RequestsMemory: cfg.RequestsMemory,
		LimitsMemory:   cfg.LimitsMemory,
		DeleteResource: cfg.DeleteResource,
	}
	if limit, ok := cfg.CPULimit(); ok {
		doc.LimitsCPU = &limit
	}
	if cfg.Role != nil {
		doc.RoleName = cfg.Role.Name
		doc.ServiceName = cfg.Role.ServiceName
	}
	return doc
}

func deployGroupOf(cfg *models.DeployGroupRole) template.DeployGroup {
	if cfg.DeployGroup == nil {
		return template.DeployGroup{}
	}
	return template.DeployGroup{
		Name:        cfg.DeployGroup.Name,
		Environment: cfg.DeployGroup.Environment,
		Deleted:     !cfg.DeployGroup.Active(),
	}
}

func actorLabel(u *models.User) string {
	switch {
	case u == nil:
		return ""
	case u.Email == "":
		return u.Name
	default:
		return u.Name + " <" + u.Email + ">"
	}
}
