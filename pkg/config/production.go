package config

import (
	"os"
	"strconv"
)

func loadProductionConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil {
		cfg.ServerPort = port
	}

	cfg.DataDir = os.Getenv("DATA_DIRECTORY")
	if cfg.DataDir == "" {
		cfg.DataDir = "/data"
	}
	cfg.DatabaseFilePath = os.Getenv("DATABASE_FILE_PATH")
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = "/data/data.sqlite"
	}
	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.ServerHost = "0.0.0.0"
}
