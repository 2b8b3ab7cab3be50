package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/nesivarusta/nvu_api/model"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateDevice = errors.New("device already registered")
)

// UserRepository handles anonymous commenter records
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *UserRepository) GetUserByDeviceID(ctx context.Context, deviceID string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser returns ErrDuplicateDevice when another request registered the
// device first.
func (ds *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	if err := ds.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDevice
		}
		return err
	}
	return nil
}

func (ds *UserRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := ds.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ds *UserRepository) IncrementCommentCount(ctx context.Context, userID string) error {
	result := ds.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// TouchUser records the latest client seen for a user.
func (ds *UserRepository) TouchUser(ctx context.Context, userID, ip, userAgent string, seenAt time.Time) error {
	return ds.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_ip":         ip,
			"last_user_agent": userAgent,
			"last_seen_at":    seenAt,
			"updated_at":      seenAt,
		}).Error
}
