package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/moderation"
	"gorm.io/gorm"
)

var activeStatuses = []string{string(model.CommentPending), string(model.CommentApproved)}

// CommentRepository handles comment persistence
type CommentRepository struct {
	BaseRepository
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	if err := ds.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", moderation.ErrDuplicateSubmission, err)
		}
		return err
	}
	return nil
}

func (ds *CommentRepository) HasActive(ctx context.Context, resourceID int, fingerprint string) (bool, error) {
	var count int64
	err := ds.db.WithContext(ctx).Model(&model.Comment{}).
		Where("resource_id = ? AND fingerprint = ? AND status IN ?", resourceID, fingerprint, activeStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ds *CommentRepository) Get(ctx context.Context, id string) (*model.Comment, error) {
	var comment model.Comment
	if err := ds.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, moderation.ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// UpdateModeration is conditional on the row still being pending, so two
// administrators acting at once cannot both win.
func (ds *CommentRepository) UpdateModeration(ctx context.Context, c *model.Comment) (bool, error) {
	result := ds.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status = ?", c.ID, string(model.CommentPending)).
		Updates(map[string]interface{}{
			"status":       string(c.Status),
			"is_visible":   c.IsVisible,
			"active_slot":  c.ActiveSlot,
			"moderated_at": c.ModeratedAt,
			"moderated_by": c.ModeratedBy,
			"updated_at":   c.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (ds *CommentRepository) ListApproved(ctx context.Context, resourceID, offset, limit int) ([]model.Comment, int64, error) {
	query := ds.db.WithContext(ctx).Model(&model.Comment{}).
		Where("resource_id = ? AND status = ?", resourceID, string(model.CommentApproved))
	return ds.page(query, offset, limit)
}

func (ds *CommentRepository) ListByStatus(ctx context.Context, status *model.CommentStatus, offset, limit int) ([]model.Comment, int64, error) {
	query := ds.db.WithContext(ctx).Model(&model.Comment{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}
	return ds.page(query, offset, limit)
}

func (ds *CommentRepository) page(query *gorm.DB, offset, limit int) ([]model.Comment, int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := []model.Comment{}
	err := query.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (ds *CommentRepository) IncrementReaction(ctx context.Context, id string, reaction moderation.Reaction) (*model.Comment, error) {
	column := "likes_count"
	if reaction == moderation.ReactionDislike {
		column = "dislikes_count"
	}

	result := ds.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status = ?", id, string(model.CommentApproved)).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, moderation.ErrNotFound
	}
	return ds.Get(ctx, id)
}

func (ds *CommentRepository) CountByStatus(ctx context.Context) (map[model.CommentStatus]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := ds.db.WithContext(ctx).Model(&model.Comment{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.CommentStatus]int64, len(rows))
	for _, row := range rows {
		counts[model.CommentStatus(row.Status)] = row.Count
	}
	return counts, nil
}
