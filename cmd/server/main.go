package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/roomkeeper/internal/server"
	"github.com/dmitrijs2005/roomkeeper/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg, server.NewLogger(cfg))

	if err != nil {
		log.Fatalf("roomkeeper: %v", err)
	}

	app.Run(ctx)

}
