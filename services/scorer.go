package services

import (
	stdContext "context"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/nesivarusta/nvu_api/config"
	"github.com/nesivarusta/nvu_api/services/scoring"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ScorerService builds the content scorer from configuration. Without an API
// key no scorer is built and every comment gets the neutral pending verdict.
type ScorerService struct {
	context.DefaultService

	providerCfg scoring.ProviderConfig
	opts        scoring.Options

	scorer *scoring.Scorer
}

const SCORER_SVC = "scorer_svc"

func (svc ScorerService) Id() string {
	return SCORER_SVC
}

func (svc *ScorerService) Configure(ctx *context.Context) error {
	svc.providerCfg = scoring.ProviderConfig{
		Name:      viper.GetString(config.ScorerProvider),
		APIKey:    viper.GetString(config.ScorerAPIKey),
		Model:     viper.GetString(config.ScorerModel),
		MaxTokens: viper.GetInt(config.ScorerMaxTokens),
	}
	svc.opts = scoring.Options{
		Timeout:         viper.GetDuration(config.ScorerTimeout),
		BreakerFailures: viper.GetUint32(config.ScorerBreakerTrips),
		BreakerTimeout:  viper.GetDuration(config.ScorerBreakerReset),
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *ScorerService) Start() error {
	if svc.providerCfg.APIKey == "" {
		log.Warnf("%s is not set, comments will not be scored automatically", config.ScorerAPIKey)
		return nil
	}

	if monitoring, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		svc.opts.Observer = monitoring
	}

	ctx, cancel := stdContext.WithTimeout(stdContext.Background(), 10*time.Second)
	defer cancel()

	provider, err := scoring.NewProvider(ctx, svc.providerCfg)
	if err != nil {
		return err
	}
	svc.scorer = scoring.NewScorer(provider, svc.opts)

	log.WithFields(log.Fields{
		"provider": provider.Name(),
		"timeout":  svc.opts.Timeout,
	}).Info("Content scorer configured")
	return nil
}

// Scorer returns nil when scoring is disabled.
func (svc *ScorerService) Scorer() *scoring.Scorer {
	return svc.scorer
}
