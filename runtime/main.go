package main

import (
	"errors"
	"io/fs"

	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("Error loading .env file")
	}

	config.Init()

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.PostgresService{},
		&services.RedisService{},

		&services.JWTService{},
		&services.RateLimitService{},
		&services.ScorerService{},
		&services.UserService{},
		&services.AuthService{},
		&services.CommentService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service exited")
		return
	}
}
