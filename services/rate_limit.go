package services

import (
	stdContext "context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/limiter"
	"github.com/nesivarusta/nvu_api/shared"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var errRateLimited = errors.New("rate limit exceeded")

// RateLimitService owns the process-wide limiter and its HTTP middleware.
type RateLimitService struct {
	context.DefaultService

	limiter    *limiter.Limiter
	memory     *limiter.MemoryStore
	storeName  string
	sweepEvery time.Duration
	stopSweep  stdContext.CancelFunc

	monitoring *MonitoringService
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *context.Context) error {
	svc.storeName = strings.ToLower(viper.GetString(config.RateLimitStore))
	svc.sweepEvery = viper.GetDuration(config.RateLimitSweepPeriod)
	if svc.sweepEvery <= 0 {
		svc.sweepEvery = time.Minute
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.monitoring, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	var store limiter.Store
	switch svc.storeName {
	case "redis":
		redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService)
		if !ok || redisSvc.GetClient() == nil {
			return fmt.Errorf("%s=redis requires a configured redis client", config.RateLimitStore)
		}
		store = limiter.NewRedisStore(redisSvc.GetClient(), nil)
	case "memory", "":
		svc.storeName = "memory"
		svc.memory = limiter.NewMemoryStore()
		store = svc.memory
	default:
		return fmt.Errorf("unsupported %s %q", config.RateLimitStore, svc.storeName)
	}

	svc.limiter = limiter.New(store, nil)
	if err := svc.initDefaultConfigs(); err != nil {
		return err
	}

	if svc.memory != nil {
		ctx, cancel := stdContext.WithCancel(stdContext.Background())
		svc.stopSweep = cancel
		go svc.memory.RunSweeper(ctx, svc.sweepEvery, func(removed int) {
			if removed > 0 {
				log.WithField("removed", removed).Debug("Rate limit windows swept")
			}
		})
	}

	log.WithFields(log.Fields{
		"store":    svc.storeName,
		"policies": len(svc.limiter.Policies()),
	}).Info("Rate limiter started")
	return nil
}

func (svc *RateLimitService) Shutdown() {
	if svc.stopSweep != nil {
		svc.stopSweep()
	}
}

// ==================== CONFIGURATION MANAGEMENT ====================

func defaultPolicies() []limiter.Policy {
	return []limiter.Policy{
		{ActionClass: shared.ActionComment, MaxRequests: 3, Window: time.Minute, Description: "Comment submissions"},
		{ActionClass: shared.ActionReaction, MaxRequests: 30, Window: time.Minute, Description: "Comment reactions"},
		{ActionClass: shared.ActionAdminLogin, MaxRequests: 5, Window: 15 * time.Minute, Description: "Administrator login attempts"},
		{ActionClass: shared.ActionAPIGeneral, MaxRequests: 300, Window: time.Minute, Description: "General API rate limit per IP"},
	}
}

// initDefaultConfigs registers the built-in policies, each overridable through
// RATE_LIMIT_<CLASS>_MAX and RATE_LIMIT_<CLASS>_WINDOW.
func (svc *RateLimitService) initDefaultConfigs() error {
	for _, policy := range defaultPolicies() {
		if key := config.RateLimitKey(policy.ActionClass, "max"); viper.IsSet(key) {
			policy.MaxRequests = viper.GetInt(key)
		}
		if key := config.RateLimitKey(policy.ActionClass, "window"); viper.IsSet(key) {
			policy.Window = viper.GetDuration(key)
		}
		if err := svc.limiter.Configure(policy); err != nil {
			return err
		}
	}
	return nil
}

// ==================== CORE RATE LIMITING LOGIC ====================

func (svc *RateLimitService) Check(ctx stdContext.Context, identifier, actionClass string) (limiter.Result, error) {
	return svc.limiter.Check(ctx, identifier, actionClass)
}

func (svc *RateLimitService) Reset(ctx stdContext.Context, identifier, actionClass string) error {
	return svc.limiter.Reset(ctx, identifier, actionClass)
}

func (svc *RateLimitService) Policies() []limiter.Policy {
	return svc.limiter.Policies()
}

func (svc *RateLimitService) StoreName() string {
	return svc.storeName
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// RateLimit limits an action class per client IP. A store failure lets the
// request through.
func (svc *RateLimitService) RateLimit(actionClass string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := "ip:" + clientinfo.ClientIP(c)

		res, err := svc.Check(c.UserContext(), identifier, actionClass)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"action_class": actionClass,
				"identifier":   identifier,
			}).Error("Rate limit check failed")
			return c.Next()
		}

		addRateLimitHeaders(c, res)

		if !res.Allowed {
			svc.recordDenied(actionClass)
			return shared.NewTooManyRequestsError(errRateLimited, getRateLimitMessage(actionClass), res.RetryAfter)
		}

		return c.Next()
	}
}

func (svc *RateLimitService) recordDenied(actionClass string) {
	if svc.monitoring != nil {
		svc.monitoring.RateLimited(actionClass)
	}
}

// ==================== HELPER FUNCTIONS ====================

func addRateLimitHeaders(c *fiber.Ctx, res limiter.Result) {
	if res.Remaining == limiter.Unlimited {
		return
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

	if !res.Allowed {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(shared.RetryAfterSeconds(res.RetryAfter)))
	}
}

func getRateLimitMessage(actionClass string) string {
	messages := map[string]string{
		shared.ActionComment:    shared.MsgTooManySubmissions,
		shared.ActionReaction:   "Too many reactions. Please try again later.",
		shared.ActionAdminLogin: "Too many login attempts. Please try again later.",
		shared.ActionAPIGeneral: shared.MsgTooManyRequests,
	}

	if message, exists := messages[actionClass]; exists {
		return message
	}

	return "Too many requests. Please try again later."
}
