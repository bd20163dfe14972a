package config

import "os"

func loadTestConfig(cfg *Config) {
	cfg.DatabaseFilePath = ":memory:"
	cfg.DataDir = os.TempDir()
	cfg.JWTSecret = "test-secret"
	cfg.ServerHost = "127.0.0.1"
	cfg.ServerPort = 0
}
