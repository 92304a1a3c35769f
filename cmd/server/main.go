package main

import (
	"context"

	"storefront/internal/server"
	"storefront/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()
	app := server.NewApp(ctx, cfg)
	app.Run(ctx)
}
