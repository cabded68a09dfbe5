package main

import (
	"context"
	"log"

	"github.com/quickmark/qrvault/internal/app"
	"github.com/quickmark/qrvault/internal/config"
)

func main() {

	cfg := config.LoadConfig()
	a, err := app.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
