package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/hiwwer/marketbot/core/cmd"
	"github.com/hiwwer/marketbot/internal/app"
)

func main() {
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("marketbot: %v", err)
	}
}
