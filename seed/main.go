package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/seed/seeders"
	"github.com/nesivarusta/nvu_api/services"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using system environment variables")
	}
	config.Init()

	var (
		seedType  = flag.String("type", "all", "Type of seeding: all, admin-hash")
		dbPath    = flag.String("db", "", "SQLite database path (overrides DB_DRIVER and DB_DATABASE)")
		resources = flag.String("resources", "1", "Comma separated resource ids to seed comments on")
		password  = flag.String("password", "", "Administrator password for -type=admin-hash")
		help      = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	switch *seedType {
	case "admin-hash":
		hash, err := seeders.AdminPasswordHash(*password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Printf("%s=%s\n", config.AdminPasswordHash, hash)
	case "all":
		ids, err := parseResourceIDs(*resources)
		if err != nil {
			log.Fatalf("Invalid -resources: %v", err)
		}

		driver, dsn, err := config.Database()
		if err != nil {
			log.Fatalf("Invalid database configuration: %v", err)
		}
		if *dbPath != "" {
			driver, dsn = "sqlite", *dbPath
		}

		db, err := gorm.Open(services.Dialector(driver, dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.WithField("driver", driver).Info("Connected to database")

		if err := seeders.NewMainSeeder(db).SeedAll(context.Background(), ids); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	default:
		log.Fatalf("Unknown seed type: %s. Use 'all' or 'admin-hash'", *seedType)
	}
}

func parseResourceIDs(raw string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a positive integer", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func showHelp() {
	fmt.Println(`
Database seeding tool for the comment service

Usage: go run ./seed [flags]

Flags:
  -type string
        all (default) seeds demo comments, admin-hash prints ADMIN_PASSWORD_HASH
  -db string
        SQLite database path, overrides DB_DRIVER and DB_DATABASE
  -resources string
        Comma separated resource ids to seed comments on (default "1")
  -password string
        Administrator password to hash with -type=admin-hash

Examples:
  go run ./seed -db=./nvu_api.db -resources=1,2,3
  go run ./seed -type=admin-hash -password='correct horse battery staple'`)
}
