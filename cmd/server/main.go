package main

import (
	"engagement-engine/internal/app/server"
	"engagement-engine/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	server.Run(cfg)
}
