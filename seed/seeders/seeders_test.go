package seeders

import (
	"context"
	"testing"

	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSeedAll_IsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seed_test?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, NewMainSeeder(db).SeedAll(ctx, []int{1, 2}))

	comments := repositories.NewCommentRepository(db)
	counts, err := comments.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), counts[model.CommentApproved])
	assert.Equal(t, int64(4), counts[model.CommentPending])

	created, err := NewCommentSeeder(comments).SeedComments(ctx, []int{1, 2})
	require.NoError(t, err)
	assert.Zero(t, created)

	approved, total, err := comments.ListApproved(ctx, 1, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, approved, 3)
	assert.True(t, approved[0].CreatedAt.After(approved[1].CreatedAt))
}

func TestAdminPasswordHash(t *testing.T) {
	hash, err := AdminPasswordHash("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = AdminPasswordHash("")
	assert.Error(t, err)
}
