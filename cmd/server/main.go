package main

import (
	"github.com/saama143/ping-tree/internal/app"
	"github.com/saama143/ping-tree/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	app.Run(cfg)
}
