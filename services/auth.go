package services

import (
	stdContext "context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/dto"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/repositories"
	"github.com/nesivarusta/nvu_api/shared"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = errors.New("invalid credentials")
	errSessionNotLive     = errors.New("session revoked or expired")
)

type adminSessionStore interface {
	CreateSession(ctx stdContext.Context, session *model.AdminSession) error
	GetSession(ctx stdContext.Context, sessionID string) (*model.AdminSession, error)
	RevokeSession(ctx stdContext.Context, sessionID string, at time.Time) error
}

// AuthService handles the single administrator account: password login,
// server-side sessions and the middleware guarding admin routes.
type AuthService struct {
	context.DefaultService

	username     string
	passwordHash []byte
	sessionTTL   time.Duration
	secureCookie bool

	sessions adminSessionStore
	jwtSvc   *JWTService
	now      func() time.Time
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.username = viper.GetString(config.AdminUsername)
	svc.passwordHash = []byte(viper.GetString(config.AdminPasswordHash))
	svc.sessionTTL = viper.GetDuration(config.AdminSessionTTL)
	svc.secureCookie = viper.GetBool(config.AdminCookieSecure)
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sessions = svc.Service(POSTGRES_SVC).(*PostgresService).Sessions()
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)

	if len(svc.passwordHash) == 0 {
		log.Warnf("%s is not set, administrator login is disabled", config.AdminPasswordHash)
	}
	return nil
}

// Login checks the administrator credentials and opens a session.
func (svc *AuthService) Login(ctx stdContext.Context, req dto.AdminLoginRequest, clientIP, userAgent string) (*dto.AdminLoginResponse, error) {
	if !svc.checkCredentials(req.Username, req.Password) {
		log.WithFields(log.Fields{
			"username": req.Username,
			"ip":       clientIP,
		}).Warn("Failed administrator login")
		return nil, shared.NewUnauthorizedError(errInvalidCredentials, "Invalid username or password")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, shared.NewInternalError(err, "")
	}
	now := svc.now()
	session := &model.AdminSession{
		ID:        id.String(),
		AdminID:   svc.username,
		IPAddress: clientIP,
		UserAgent: userAgent,
		ExpiresAt: now.Add(svc.sessionTTL),
		CreatedAt: now,
	}
	if err := svc.sessions.CreateSession(ctx, session); err != nil {
		return nil, shared.NewInternalError(err, "")
	}

	token, err := svc.jwtSvc.ToJWT(session.AdminID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, shared.NewInternalError(err, "")
	}

	log.WithFields(log.Fields{
		"admin_id":   session.AdminID,
		"session_id": session.ID,
		"ip":         clientIP,
	}).Info("Administrator logged in")

	return &dto.AdminLoginResponse{
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// checkCredentials always runs bcrypt so a wrong username costs the same as a
// wrong password.
func (svc *AuthService) checkCredentials(username, password string) bool {
	if len(svc.passwordHash) == 0 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(svc.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(svc.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

func (svc *AuthService) Logout(ctx stdContext.Context, sessionID string) error {
	if err := svc.sessions.RevokeSession(ctx, sessionID, svc.now()); err != nil {
		return shared.NewInternalError(err, "")
	}
	return nil
}

// SessionCookie builds the cookie carrying the session token.
func (svc *AuthService) SessionCookie(token string, expiresAt time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     shared.AdminSessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   svc.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

func (svc *AuthService) ClearSessionCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     shared.AdminSessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   svc.secureCookie,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}

// Authenticate resolves a token to a live administrator session.
func (svc *AuthService) Authenticate(ctx stdContext.Context, token string) (*model.AdminSession, error) {
	claims, err := svc.jwtSvc.VerifyJWTToken(token)
	if err != nil {
		return nil, err
	}

	session, err := svc.sessions.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, errSessionNotLive
		}
		return nil, err
	}
	if session.AdminID != claims.AdminID || !session.Live(svc.now()) {
		return nil, errSessionNotLive
	}
	return session, nil
}

// RequireAdmin accepts the session cookie or an Authorization bearer token.
func (svc *AuthService) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(shared.AdminSessionCookie)
		if token == "" {
			var err error
			token, err = svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
			if err != nil {
				return shared.NewUnauthorizedError(err, "Unauthorized")
			}
		}

		session, err := svc.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, errSessionNotLive) {
				return shared.NewUnauthorizedError(err, "Unauthorized")
			}
			return shared.NewInternalError(err, "")
		}

		c.Locals(shared.AdminID, session.AdminID)
		c.Locals(shared.AdminSessionID, session.ID)
		return c.Next()
	}
}
