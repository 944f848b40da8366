package main

import (
	"carpool/internal/server"
	"carpool/pkg/config"
)

func main() {
	cfg := config.Load(server.ServiceName)
	if cfg.UseMongo() {
		cfg.SetMongo()
	}
	if cfg.UseRedis() {
		cfg.SetRedis()
	}
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting carpool API")
	srv, err := server.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize server", "error", err)
	}
	srv.App.Run()
}
