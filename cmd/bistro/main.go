package main

import (
	_ "time/tzdata"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bistro/internal/clock"
	"github.com/smallbiznis/bistro/internal/config"
	"github.com/smallbiznis/bistro/internal/menu"
	"github.com/smallbiznis/bistro/internal/migration"
	"github.com/smallbiznis/bistro/internal/observability"
	"github.com/smallbiznis/bistro/internal/ratelimit"
	"github.com/smallbiznis/bistro/internal/rating"
	"github.com/smallbiznis/bistro/internal/server"
	"github.com/smallbiznis/bistro/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Functional Domains
		menu.Module,
		rating.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
