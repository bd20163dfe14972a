package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	DatabaseBusyTimeout       time.Duration
	DatabaseConnectRetryCount int
	DatabaseConnectRetryDelay time.Duration
	DatabaseDebug             bool
	DatabaseFilePath          string
	DatabaseMaxRetries        int
	// DataDir is the storage root. Committed uploads live under
	// <DataDir>/uploads/<ownerID>/... and per-request staging directories
	// under <DataDir>/tmp/uploads/.
	DataDir     string
	FrontendURL string
	Hostname    string
	JWTSecret   string
	ServerHost  string
	ServerPort  int
}

const environmentENV = "ENVIRONMENT"

func New() (*Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        3,
		Hostname:                  hostname,
		ServerPort:                3001,
	}

	switch os.Getenv(environmentENV) {
	case "development", "":
		loadDevelopmentConfig(cfg)
	case "test":
		loadTestConfig(cfg)
	case "production":
		loadProductionConfig(cfg)
	}

	return cfg, nil
}

// UploadsDir is the permanent storage root for committed library files.
func (cfg *Config) UploadsDir() string {
	return filepath.Join(cfg.DataDir, "uploads")
}

// UploadScratchDir is the root under which per-request staging directories are
// created.
func (cfg *Config) UploadScratchDir() string {
	return filepath.Join(cfg.DataDir, "tmp", "uploads")
}
