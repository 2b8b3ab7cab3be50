package services

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	MONITORING_SVC = "monitoring_svc"
	SERVICE_NAME   = "nvu_api"
)

type metrics struct {
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestsActive         prometheus.Gauge
	httpRequestDurationSeconds *prometheus.HistogramVec
	httpResponseSizeBytes      *prometheus.HistogramVec

	heapAllocBytes prometheus.Gauge
	heapSysBytes   prometheus.Gauge
	gcTotal        prometheus.Counter

	commentsSubmittedTotal  *prometheus.CounterVec
	commentModerationsTotal *prometheus.CounterVec
	rateLimitDeniedTotal    *prometheus.CounterVec
	scorerRequestsTotal     *prometheus.CounterVec
	scorerDurationSeconds   *prometheus.HistogramVec
}

func newMetrics() *metrics {
	return &metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		httpRequestsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		}),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method", "status"},
		),
		httpResponseSizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response payload size in bytes",
				Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000},
			},
			[]string{"endpoint", "method"},
		),

		heapAllocBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		}),
		heapSysBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "heap_sys_bytes",
			Help: "Heap memory obtained from system in bytes",
		}),
		gcTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		}),

		commentsSubmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comments_submitted_total",
				Help: "Comments stored, by creation status",
			},
			[]string{"status"},
		),
		commentModerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "comment_moderations_total",
				Help: "Administrator moderation decisions",
			},
			[]string{"action"},
		),
		rateLimitDeniedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_denied_total",
				Help: "Requests denied by the rate limiter",
			},
			[]string{"action_class"},
		),
		scorerRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorer_requests_total",
				Help: "Content scorer calls, by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		scorerDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorer_duration_seconds",
				Help:    "Content scorer latency in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
			},
			[]string{"provider"},
		),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestsActive,
		m.httpRequestDurationSeconds,
		m.httpResponseSizeBytes,
		m.heapAllocBytes,
		m.heapSysBytes,
		m.gcTotal,
		m.commentsSubmittedTotal,
		m.commentModerationsTotal,
		m.rateLimitDeniedTotal,
		m.scorerRequestsTotal,
		m.scorerDurationSeconds,
	}
}

// MonitoringService serves Prometheus metrics on its own port and records the
// comment pipeline, rate limiter and scorer events.
type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry
	metrics  *metrics

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = viper.GetInt(config.PrometheusPort)
	svc.init()
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) init() {
	svc.closed = make(chan struct{})
	svc.metrics = newMetrics()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(svc.metrics.collectors()...)
	svc.register = reg

	for _, status := range []string{"pending", "rejected"} {
		svc.metrics.commentsSubmittedTotal.WithLabelValues(status).Add(0)
	}
	for _, action := range []string{"approve", "reject"} {
		svc.metrics.commentModerationsTotal.WithLabelValues(action).Add(0)
	}
}

func (svc *MonitoringService) Start() error {
	go svc.updateMemoryMetrics()

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})))
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Int("port", svc.port).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		close(svc.closed)
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// updateMemoryMetrics updates memory-related metrics every 15 seconds
func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			svc.metrics.heapAllocBytes.Set(float64(m.Alloc))
			svc.metrics.heapSysBytes.Set(float64(m.Sys))

			// Only add the difference since the last tick
			if m.NumGC > svc.lastGCCount {
				svc.metrics.gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			log.Info().Msg("Memory metrics updater stopped")
			return
		}
	}
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration, responseSize int) {
	svc.metrics.httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	svc.metrics.httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
	svc.metrics.httpResponseSizeBytes.WithLabelValues(endpoint, method).Observe(float64(responseSize))
}

func (svc *MonitoringService) CommentSubmitted(status string) {
	svc.metrics.commentsSubmittedTotal.WithLabelValues(status).Inc()
}

func (svc *MonitoringService) CommentModerated(action string) {
	svc.metrics.commentModerationsTotal.WithLabelValues(action).Inc()
}

func (svc *MonitoringService) RateLimited(actionClass string) {
	svc.metrics.rateLimitDeniedTotal.WithLabelValues(actionClass).Inc()
}

func (svc *MonitoringService) ObserveScore(provider, outcome string, d time.Duration) {
	svc.metrics.scorerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	svc.metrics.scorerDurationSeconds.WithLabelValues(provider).Observe(d.Seconds())
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(svc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		svc.metrics.httpRequestsActive.Inc()
		defer svc.metrics.httpRequestsActive.Dec()

		// Render the error here so the recorded status is the one sent
		if err := c.Next(); err != nil {
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		// Route pattern is only known after routing
		endpoint := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		svc.RecordRequest(method, endpoint, status, time.Since(start), len(c.Response().Body()))

		return nil
	}
}
