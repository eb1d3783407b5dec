// File: cmd/server/providers.go
package main

import (
	"github.com/Brcolf/naarscars-notify/internal/config"
	"github.com/Brcolf/naarscars-notify/internal/feed"
	"github.com/Brcolf/naarscars-notify/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func provideGateway(cfg *config.Config, logger *zap.Logger) notification.Gateway {
	return notification.NewHTTPGateway(cfg.RemoteStoreURL, cfg.RemoteStoreToken, cfg.RemoteStoreTimeout, logger)
}

func provideDebouncer(cfg *config.Config, reconciler *feed.Reconciler, logger *zap.Logger) *feed.Debouncer {
	return feed.NewDebouncer(
		cfg.RefreshDebounce,
		cfg.FallbackDebounce,
		reconciler.Reconcile,
		logger,
	)
}

// provideChangeFeed builds the Kafka consumer. The owner filter stays open
// here; the reconciler gates every pass on the active session instead.
func provideChangeFeed(cfg *config.Config, logger *zap.Logger) feed.ChangeFeed {
	return feed.NewKafkaFeed(feed.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	}, uuid.Nil, logger)
}
