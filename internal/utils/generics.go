package utils

import (
	"fmt"
	"log"
	"strconv"

	"github.com/abisalde/storefront-auth/internal/configs"
)

const defaultPort = 8080

func getPort(cfg *configs.Config) int {
	port, err := strconv.Atoi(cfg.App.Port)
	if err != nil {
		log.Printf("⚠️ Invalid port '%s', defaulting to %d. Error: %v", cfg.App.Port, defaultPort, err)
		return defaultPort
	}

	if port < 10 || port > 65535 {
		log.Printf("⚠️ Port %d out of range (10-65535), defaulting to %d", port, defaultPort)
		return defaultPort
	}

	return port
}

func GetListenAddress(cfg *configs.Config) string {
	port := getPort(cfg)

	if cfg.IsProduction() {
		return fmt.Sprintf("0.0.0.0:%d", port)
	}
	return fmt.Sprintf(":%d", port)
}
