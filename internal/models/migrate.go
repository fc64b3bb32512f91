package models

import "gorm.io/gorm"

// All returns every model that needs migration, in dependency order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&Role{},
		&DeployGroup{},
		&Stage{},
		&DeployGroupRole{},
	}
}

// Migrate runs AutoMigrate for all models plus the schema changes AutoMigrate
// can't express.
func Migrate(db *gorm.DB) error {
	if err := enableUUIDExtension(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}

	migrations := []func(*gorm.DB) error{
		addDeployGroupNaturalOrderIndex,
		addRoleProjectNameIndex,
	}
	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// enableUUIDExtension ensures gen_random_uuid() is available on older Postgres.
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

func addDeployGroupNaturalOrderIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_deploy_groups_natural_order
		ON deploy_groups(natural_order)
	`).Error
}

// role names are unique per project among live roles
func addRoleProjectNameIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_kubernetes_roles_project_name
		ON kubernetes_roles(project_id, name)
		WHERE deleted_at IS NULL
	`).Error
}
