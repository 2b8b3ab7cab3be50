package seeders

import (
	"context"

	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll migrates the schema and seeds demo comments on the given resources.
func (s *MainSeeder) SeedAll(ctx context.Context, resourceIDs []int) error {
	log.Info("Starting database seeding...")

	if err := s.db.AutoMigrate(&model.Comment{}, &model.User{}, &model.AdminSession{}); err != nil {
		return err
	}

	created, err := NewCommentSeeder(repositories.NewCommentRepository(s.db)).SeedComments(ctx, resourceIDs)
	if err != nil {
		log.WithError(err).Error("Comment seeding failed")
		return err
	}

	log.WithField("comments", created).Info("Database seeding completed successfully!")
	return nil
}
