package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/services/clientinfo"
	"github.com/nesivarusta/nvu_api/services/handlers"
	"github.com/nesivarusta/nvu_api/shared"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type HttpService struct {
	context.DefaultService

	authSvc       *AuthService
	commentSvc    *CommentService
	rateLimitSvc  *RateLimitService
	monitoringSvc *MonitoringService

	port           int
	corsOrigins    string
	proxyHeader    string
	trustedProxies []string
	app            *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	svc.port = viper.GetInt(config.HttpPort)
	svc.corsOrigins = viper.GetString(config.CorsOrigins)
	svc.proxyHeader = viper.GetString(config.ProxyHeader)
	svc.trustedProxies = config.TrustedProxyList()
	if svc.proxyHeader != "" && len(svc.trustedProxies) == 0 {
		log.WithField("header", svc.proxyHeader).Warn("PROXY_HEADER set without TRUSTED_PROXIES, client addresses come from the socket")
	}
	return svc.DefaultService.Configure(ctx)
}

// Start blocks serving HTTP, so the service must be registered last.
func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.commentSvc = svc.Service(COMMENT_SVC).(*CommentService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.app = svc.newApp()

	log.WithField("port", svc.port).Info("HTTP server starting")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

func (svc *HttpService) newApp() *fiber.App {
	app := fiber.New(clientinfo.TrustProxy(fiber.Config{
		AppName:               SERVICE_NAME,
		DisableStartupMessage: true,
		ErrorHandler:          shared.ErrorHandler,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		BodyLimit:             64 * 1024,
	}, svc.proxyHeader, svc.trustedProxies))

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     svc.corsOrigins,
		AllowHeaders:     strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization, shared.DeviceIDHeader}, ","),
		AllowCredentials: svc.corsOrigins != "*",
	}))
	if svc.monitoringSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitoringSvc))
	}

	app.Get("/ping", svc.ping)

	svc.registerRoutes(app)
	return app
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	commentHandler := handlers.NewCommentHandler(svc.commentSvc)
	adminHandler := handlers.NewAdminHandler(svc.commentSvc)
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	rateLimitHandler := handlers.NewRateLimitHandler(svc.rateLimitSvc)

	v1 := app.Group("/api/v1", svc.rateLimitSvc.RateLimit(shared.ActionAPIGeneral))

	// Submissions are limited inside the pipeline, per IP and per user or device
	comments := v1.Group("/comments")
	comments.Post("/", commentHandler.SubmitComment)
	comments.Get("/", commentHandler.ListComments)
	comments.Post("/:id/reactions", commentHandler.ReactToComment)

	admin := v1.Group("/admin")
	admin.Post("/login", svc.rateLimitSvc.RateLimit(shared.ActionAdminLogin), authHandler.Login)

	requireAdmin := svc.authSvc.RequireAdmin()
	admin.Post("/logout", requireAdmin, authHandler.Logout)
	admin.Get("/comments", requireAdmin, adminHandler.ListComments)
	admin.Get("/comments/stats", requireAdmin, adminHandler.GetModerationStats)
	admin.Post("/comments/:id/moderate", requireAdmin, adminHandler.ModerateComment)
	admin.Get("/rate-limits", requireAdmin, rateLimitHandler.GetRateLimitStats)
	admin.Delete("/rate-limits/:actionClass/:identifier", requireAdmin, rateLimitHandler.RemoveRateLimit)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}
