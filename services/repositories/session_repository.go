package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/nesivarusta/nvu_api/model"
	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles administrator sessions
type SessionRepository struct {
	BaseRepository
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *SessionRepository) CreateSession(ctx context.Context, session *model.AdminSession) error {
	return ds.db.WithContext(ctx).Create(session).Error
}

func (ds *SessionRepository) GetSession(ctx context.Context, sessionID string) (*model.AdminSession, error) {
	var session model.AdminSession
	if err := ds.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (ds *SessionRepository) RevokeSession(ctx context.Context, sessionID string, at time.Time) error {
	return ds.db.WithContext(ctx).Model(&model.AdminSession{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", at).Error
}

// DeleteExpiredSessions removes sessions that expired before the cutoff.
func (ds *SessionRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	result := ds.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.AdminSession{})
	return result.RowsAffected, result.Error
}
