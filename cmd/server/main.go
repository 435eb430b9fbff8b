package main

import (
	_ "famtasks/docs"
	"famtasks/internal/config"
	"famtasks/internal/server"

	log "github.com/sirupsen/logrus"
)

// @title           Family Tasks API
// @version         1.0
// @description     Shared household task list with realtime sync and web push.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Server initialization failed: %v", err)
	}

	s.Run()
}
