package main

import (
	"context"
	"log"

	"github.com/akarpov/sealbox/internal/cli"
	"github.com/akarpov/sealbox/internal/server"
	"github.com/akarpov/sealbox/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	srv, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app := cli.NewApp(srv)
	app.Run(ctx)

}
