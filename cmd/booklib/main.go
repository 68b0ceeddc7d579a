package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/booklib/internal/clock"
	"github.com/smallbiznis/booklib/internal/config"
	"github.com/smallbiznis/booklib/internal/customer"
	"github.com/smallbiznis/booklib/internal/migration"
	"github.com/smallbiznis/booklib/internal/observability"
	"github.com/smallbiznis/booklib/internal/ratelimit"
	"github.com/smallbiznis/booklib/internal/server"
	"github.com/smallbiznis/booklib/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Functional Domains
		customer.Module,
		server.Module,

		fx.Invoke(logStartup),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	app.Run()
}

func logStartup(cfg config.Config, log *zap.Logger) {
	log.Info("starting",
		zap.String("app", cfg.AppName),
		zap.String("version", cfg.AppVersion),
		zap.String("environment", cfg.Environment),
		zap.Int64("node_id", cfg.NodeID),
	)
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
