package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iac-studio/rolecfg/internal/models"
)

// Set bundles the repositories bound to one connection or transaction.
type Set struct {
	Projects     ProjectRepository
	Users        UserRepository
	Roles        RoleRepository
	DeployGroups DeployGroupRepository
	Stages       StageRepository
	Configs      DeployGroupRoleRepository
}

func NewSet(db *gorm.DB, rules models.ValidationRules) Set {
	return Set{
		Projects:     NewProjectRepository(db),
		Users:        NewUserRepository(db),
		Roles:        NewRoleRepository(db),
		DeployGroups: NewDeployGroupRepository(db),
		Stages:       NewStageRepository(db),
		Configs:      NewDeployGroupRoleRepository(db, rules),
	}
}

// Transactor runs fn against repositories sharing one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(Set) error) error
}

type gormTransactor struct {
	db    *gorm.DB
	rules models.ValidationRules
}

func NewTransactor(db *gorm.DB, rules models.ValidationRules) Transactor {
	return &gormTransactor{db: db, rules: rules}
}

func (t *gormTransactor) InTx(ctx context.Context, fn func(Set) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewSet(tx, t.rules))
	})
}
