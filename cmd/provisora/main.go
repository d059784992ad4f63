package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/provisora/internal/clock"
	"github.com/smallbiznis/provisora/internal/config"
	"github.com/smallbiznis/provisora/internal/logger"
	"github.com/smallbiznis/provisora/internal/migration"
	"github.com/smallbiznis/provisora/internal/observability"
	"github.com/smallbiznis/provisora/internal/server"
	"github.com/smallbiznis/provisora/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// HTTP surface and the domain modules behind it
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
