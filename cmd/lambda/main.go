package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"commerce-chatbot/internal/app"
	"commerce-chatbot/internal/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		boot := app.StartupLogger(os.Stderr)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := app.Logger(cfg)

	h, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build handler")
	}

	lambda.Start(h.Handle)
}
