// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/Brcolf/naarscars-notify/internal/app"
	"github.com/Brcolf/naarscars-notify/internal/badge"
	"github.com/Brcolf/naarscars-notify/internal/bus"
	"github.com/Brcolf/naarscars-notify/internal/config"
	"github.com/Brcolf/naarscars-notify/internal/feed"
	"github.com/Brcolf/naarscars-notify/internal/jobs"
	"github.com/Brcolf/naarscars-notify/internal/navigation"
	"github.com/Brcolf/naarscars-notify/internal/notification"
	"github.com/Brcolf/naarscars-notify/internal/platform/database"
	"github.com/Brcolf/naarscars-notify/internal/platform/logger"
	"github.com/Brcolf/naarscars-notify/internal/readstate"
	"github.com/Brcolf/naarscars-notify/internal/shared"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		bus.New,

		// Session
		shared.NewMemorySession,
		wire.Bind(new(shared.Session), new(*shared.MemorySession)),
		shared.NewSubjectVerifier,
		wire.Bind(new(shared.TokenVerifier), new(*shared.SubjectVerifier)),

		// Cache and Gateway
		notification.NewGORMCache,
		provideGateway,

		// Engine components
		badge.NewReconciler,
		wire.Bind(new(notification.BadgePublisher), new(*badge.Reconciler)),
		wire.Bind(new(readstate.BadgeRefresher), new(*badge.Reconciler)),
		wire.Bind(new(navigation.BadgeRefresher), new(*badge.Reconciler)),
		feed.NewReconciler,
		wire.Bind(new(notification.Refresher), new(*feed.Reconciler)),
		provideDebouncer,
		provideChangeFeed,
		feed.NewListener,

		// Services and Handlers
		notification.NewService,
		wire.Bind(new(notification.Service), new(*notification.ServiceImplementation)),
		notification.NewHandler,
		readstate.NewTracker,
		readstate.NewHandler,
		navigation.NewRouter,
		navigation.NewHandler,
		jobs.NewReconcileSweepJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
