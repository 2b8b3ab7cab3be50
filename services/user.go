package services

import (
	stdContext "context"
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type userStore interface {
	GetUserByDeviceID(ctx stdContext.Context, deviceID string) (*model.User, error)
	CreateUser(ctx stdContext.Context, user *model.User) error
	UserExists(ctx stdContext.Context, userID string) (bool, error)
	IncrementCommentCount(ctx stdContext.Context, userID string) error
	TouchUser(ctx stdContext.Context, userID, ip, userAgent string, seenAt time.Time) error
}

// UserService resolves anonymous commenters from their device id.
type UserService struct {
	context.DefaultService

	users userStore
	group singleflight.Group
	now   func() time.Time
}

const USER_SVC = "user_svc"

func (svc UserService) Id() string {
	return USER_SVC
}

func (svc *UserService) Configure(ctx *context.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *UserService) Start() error {
	svc.users = svc.Service(POSTGRES_SVC).(*PostgresService).Users()
	return nil
}

// FindOrCreateByDeviceID returns the user bound to a device, creating it on first
// sight. Concurrent calls for one device share a single lookup.
func (svc *UserService) FindOrCreateByDeviceID(ctx stdContext.Context, deviceID string, md clientinfo.Metadata) (string, error) {
	v, err, _ := svc.group.Do(deviceID, func() (interface{}, error) {
		return svc.findOrCreate(ctx, deviceID, md)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (svc *UserService) findOrCreate(ctx stdContext.Context, deviceID string, md clientinfo.Metadata) (string, error) {
	now := svc.now()

	user, err := svc.users.GetUserByDeviceID(ctx, deviceID)
	if err == nil {
		if err := svc.users.TouchUser(ctx, user.ID, md.IP, md.UserAgent, now); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update user last seen")
		}
		return user.ID, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	device := deviceID
	user = &model.User{
		ID:            id.String(),
		DeviceID:      &device,
		LastIP:        md.IP,
		LastUserAgent: md.UserAgent,
		Device:        md.Device,
		Browser:       md.Browser,
		OS:            md.OS,
		LastSeenAt:    now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := svc.users.CreateUser(ctx, user); err != nil {
		// Another instance registered the device between our lookup and insert
		if errors.Is(err, repositories.ErrDuplicateDevice) {
			existing, getErr := svc.users.GetUserByDeviceID(ctx, deviceID)
			if getErr != nil {
				return "", getErr
			}
			return existing.ID, nil
		}
		return "", err
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"device":  user.Device,
	}).Info("User created for device")
	return user.ID, nil
}

func (svc *UserService) Exists(ctx stdContext.Context, userID string) (bool, error) {
	return svc.users.UserExists(ctx, userID)
}

func (svc *UserService) IncrementCommentCount(ctx stdContext.Context, userID string) error {
	return svc.users.IncrementCommentCount(ctx, userID)
}
