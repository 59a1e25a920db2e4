package database

import (
	"git.solsynth.dev/hypernet/conduit/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.User{},
	&models.Tag{},
	&models.Article{},
	&models.Comment{},
	&models.Follower{},
	&models.Favourite{},
}

// DeclareRelations registers the custom join models, it must run before RunMigration
// so the join tables are created from them.
func DeclareRelations(source *gorm.DB) error {
	return source.SetupJoinTable(&models.Article{}, "Tags", &models.TagList{})
}

// RunMigration only adds missing tables, columns and constraints, nothing is dropped.
func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
