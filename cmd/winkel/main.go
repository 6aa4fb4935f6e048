package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/samenkoop/winkel/internal/clock"
	"github.com/samenkoop/winkel/internal/config"
	"github.com/samenkoop/winkel/internal/migration"
	"github.com/samenkoop/winkel/internal/observability"
	"github.com/samenkoop/winkel/internal/server"
	"github.com/samenkoop/winkel/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
