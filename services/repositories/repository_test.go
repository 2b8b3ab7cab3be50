package repositories

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Comment{}, &model.User{}, &model.AdminSession{}))
	return db
}

func newComment(id string, resourceID int, fingerprint string, status model.CommentStatus, at time.Time) *model.Comment {
	c := &model.Comment{
		ID:          id,
		ResourceID:  resourceID,
		AuthorName:  "Ayse",
		Content:     "Helpful answer, thanks",
		AIScore:     0.8,
		Fingerprint: fingerprint,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	c.ApplyStatus(status)
	return c
}

func TestCommentRepository_CreateAndGet(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("c1", 42, "fp1", model.CommentPending, t0)))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 42, got.ResourceID)
	assert.Equal(t, model.CommentPending, got.Status)
	assert.False(t, got.IsVisible)
	require.NotNil(t, got.ActiveSlot)
	assert.Equal(t, "42:fp1", *got.ActiveSlot)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestCommentRepository_ActiveSlotIsUnique(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("c1", 42, "fp1", model.CommentPending, t0)))

	err := repo.Create(ctx, newComment("c2", 42, "fp1", model.CommentPending, t0.Add(time.Second)))
	assert.ErrorIs(t, err, moderation.ErrDuplicateSubmission)

	// Same client on another resource is fine.
	assert.NoError(t, repo.Create(ctx, newComment("c3", 43, "fp1", model.CommentPending, t0)))

	// Rejected rows hold no slot.
	assert.NoError(t, repo.Create(ctx, newComment("c4", 44, "fp1", model.CommentRejected, t0)))
	assert.NoError(t, repo.Create(ctx, newComment("c5", 44, "fp1", model.CommentRejected, t0)))
}

func TestCommentRepository_HasActive(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("c1", 42, "fp1", model.CommentRejected, t0)))
	active, err := repo.HasActive(ctx, 42, "fp1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, repo.Create(ctx, newComment("c2", 42, "fp1", model.CommentPending, t0)))
	active, err = repo.HasActive(ctx, 42, "fp1")
	require.NoError(t, err)
	assert.True(t, active)

	active, err = repo.HasActive(ctx, 42, "fp2")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCommentRepository_UpdateModerationOnlyFromPending(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("c1", 42, "fp1", model.CommentPending, t0)))

	c, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	at := t0.Add(time.Minute)
	admin := "admin"
	c.ApplyStatus(model.CommentRejected)
	c.ModeratedAt = &at
	c.ModeratedBy = &admin
	c.UpdatedAt = at

	updated, err := repo.UpdateModeration(ctx, c)
	require.NoError(t, err)
	assert.True(t, updated)

	stored, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.CommentRejected, stored.Status)
	assert.Nil(t, stored.ActiveSlot)
	require.NotNil(t, stored.ModeratedBy)
	assert.Equal(t, "admin", *stored.ModeratedBy)

	c.ApplyStatus(model.CommentApproved)
	updated, err = repo.UpdateModeration(ctx, c)
	require.NoError(t, err)
	assert.False(t, updated)

	// The freed slot accepts a new submission.
	assert.NoError(t, repo.Create(ctx, newComment("c2", 42, "fp1", model.CommentPending, at)))
}

func TestCommentRepository_ListApproved(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("old", 42, "fp1", model.CommentApproved, t0)))
	require.NoError(t, repo.Create(ctx, newComment("new", 42, "fp2", model.CommentApproved, t0.Add(time.Hour))))
	require.NoError(t, repo.Create(ctx, newComment("pending", 42, "fp3", model.CommentPending, t0)))
	require.NoError(t, repo.Create(ctx, newComment("other", 7, "fp1", model.CommentApproved, t0)))

	comments, total, err := repo.ListApproved(ctx, 42, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 2)
	assert.Equal(t, "new", comments[0].ID)
	assert.Equal(t, "old", comments[1].ID)

	comments, total, err = repo.ListApproved(ctx, 42, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, comments, 1)
	assert.Equal(t, "old", comments[0].ID)
}

func TestCommentRepository_ListByStatus(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("a", 1, "fp1", model.CommentApproved, t0)))
	require.NoError(t, repo.Create(ctx, newComment("p", 1, "fp2", model.CommentPending, t0)))
	require.NoError(t, repo.Create(ctx, newComment("r", 1, "fp3", model.CommentRejected, t0)))

	pending := model.CommentPending
	comments, total, err := repo.ListByStatus(ctx, &pending, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, comments, 1)
	assert.Equal(t, "p", comments[0].ID)

	_, total, err = repo.ListByStatus(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestCommentRepository_IncrementReaction(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("a", 1, "fp1", model.CommentApproved, t0)))
	require.NoError(t, repo.Create(ctx, newComment("p", 1, "fp2", model.CommentPending, t0)))

	c, err := repo.IncrementReaction(ctx, "a", moderation.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, 1, c.LikesCount)

	c, err = repo.IncrementReaction(ctx, "a", moderation.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, 1, c.LikesCount)
	assert.Equal(t, 1, c.DislikesCount)

	_, err = repo.IncrementReaction(ctx, "p", moderation.ReactionLike)
	assert.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestCommentRepository_CountByStatus(t *testing.T) {
	repo := NewCommentRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newComment("a", 1, "fp1", model.CommentApproved, t0)))
	require.NoError(t, repo.Create(ctx, newComment("p1", 1, "fp2", model.CommentPending, t0)))
	require.NoError(t, repo.Create(ctx, newComment("p2", 1, "fp3", model.CommentPending, t0)))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.CommentApproved])
	assert.Equal(t, int64(2), counts[model.CommentPending])
	assert.Equal(t, int64(0), counts[model.CommentRejected])
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	device := "device-1"
	user := &model.User{ID: "u1", DeviceID: &device, CreatedAt: t0, UpdatedAt: t0, LastSeenAt: t0}
	require.NoError(t, repo.CreateUser(ctx, user))

	dup := &model.User{ID: "u2", DeviceID: &device, CreatedAt: t0, UpdatedAt: t0, LastSeenAt: t0}
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), ErrDuplicateDevice)

	found, err := repo.GetUserByDeviceID(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)

	_, err = repo.GetUserByDeviceID(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)

	exists, err := repo.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = repo.UserExists(ctx, "u9")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.IncrementCommentCount(ctx, "u1"))
	require.NoError(t, repo.IncrementCommentCount(ctx, "u1"))
	assert.ErrorIs(t, repo.IncrementCommentCount(ctx, "u9"), ErrUserNotFound)

	require.NoError(t, repo.TouchUser(ctx, "u1", "10.0.0.1", "curl/8", t0.Add(time.Hour)))

	found, err = repo.GetUserByDeviceID(ctx, device)
	require.NoError(t, err)
	assert.Equal(t, 2, found.CommentCount)
	assert.Equal(t, "10.0.0.1", found.LastIP)
}

func TestSessionRepository(t *testing.T) {
	repo := NewSessionRepository(newTestDB(t))
	ctx := context.Background()

	live := &model.AdminSession{ID: "s1", AdminID: "admin", ExpiresAt: t0.Add(time.Hour), CreatedAt: t0}
	expired := &model.AdminSession{ID: "s2", AdminID: "admin", ExpiresAt: t0.Add(-time.Hour), CreatedAt: t0}
	require.NoError(t, repo.CreateSession(ctx, live))
	require.NoError(t, repo.CreateSession(ctx, expired))

	got, err := repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Live(t0))

	require.NoError(t, repo.RevokeSession(ctx, "s1", t0.Add(time.Minute)))
	got, err = repo.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.Live(t0.Add(2*time.Minute)))

	removed, err := repo.DeleteExpiredSessions(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.GetSession(ctx, "s2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
