package services

import (
	stdContext "context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/model"
	"github.com/nesivarusta/nvu_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresService owns the database connection and the repositories built on it.
// DB_DRIVER=sqlite swaps the dialect for local runs.
type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string

	comments *repositories.CommentRepository
	users    *repositories.UserRepository
	sessions *repositories.SessionRepository

	stop chan struct{}
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Comments() *repositories.CommentRepository {
	return ds.comments
}

func (ds *PostgresService) Users() *repositories.UserRepository {
	return ds.users
}

func (ds *PostgresService) Sessions() *repositories.SessionRepository {
	return ds.sessions
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	var err error
	ds.driver, ds.database, err = config.Database()
	if err != nil {
		return err
	}

	ds.stop = make(chan struct{})
	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) dialector() gorm.Dialector {
	return Dialector(ds.driver, ds.database)
}

// Dialector opens the gorm dialect for a driver returned by config.Database.
func Dialector(driver, dsn string) gorm.Dialector {
	if driver == "sqlite" {
		return sqlite.Open(dsn)
	}
	return postgres.Open(dsn)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to %s database (attempt %d/%d)...", ds.driver, attempt, maxRetries)

		ds.db, err = gorm.Open(ds.dialector(), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		// Exponential backoff with max delay of 10 seconds
		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	models := []interface{}{
		&model.Comment{},
		&model.User{},
		&model.AdminSession{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	ds.comments = repositories.NewCommentRepository(ds.db)
	ds.users = repositories.NewUserRepository(ds.db)
	ds.sessions = repositories.NewSessionRepository(ds.db)

	go ds.cleanupLoop(time.Hour)

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ds.stop:
			return
		case <-ticker.C:
			if err := ds.CleanupExpiredData(); err != nil {
				log.Printf("Failed to cleanup expired data: %v", err)
			}
		}
	}
}

// CleanupExpiredData drops admin sessions that expired more than a day ago.
func (ds *PostgresService) CleanupExpiredData() error {
	ctx, cancel := stdContext.WithTimeout(stdContext.Background(), 30*time.Second)
	defer cancel()

	removed, err := ds.sessions.DeleteExpiredSessions(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return ds.HandleError(err)
	}
	if removed > 0 {
		log.WithField("removed", removed).Info("Expired admin sessions removed")
	}
	return nil
}

func (ds *PostgresService) Shutdown() {
	if ds.stop != nil {
		close(ds.stop)
	}
	if ds.db == nil {
		return
	}
	if sqlDB, err := ds.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "duplicate key value violates unique constraint"),
			strings.Contains(msg, "UNIQUE constraint failed"):
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		case strings.Contains(msg, "connection refused"):
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		default:
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}
