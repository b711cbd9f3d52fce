package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/catalog/internal/server"
	"github.com/dmitrijs2005/catalog/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Init(ctx); err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
