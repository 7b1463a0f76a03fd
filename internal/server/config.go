package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DjordjeVuckovic/metadata-ingest/pkg/utils"
)

type Config struct {
	Enabled     bool
	Port        string
	UseHttp2    bool
	CorsOrigins []string
}

func LoadConfig() (*Config, error) {
	port := os.Getenv("STATUS_PORT")
	if port == "" {
		port = "8085"
	}

	if err := validatePort(port); err != nil {
		return nil, fmt.Errorf("invalid port: %w", err)
	}

	var origins []string
	corsOriginsEnv := os.Getenv("CORS_ORIGINS")
	if corsOriginsEnv != "" {
		origins = utils.RemoveEmptyStrings(strings.Split(corsOriginsEnv, ","))
	}

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Config{
		Enabled:     os.Getenv("STATUS_SERVER_ENABLED") == "true",
		Port:        port,
		UseHttp2:    os.Getenv("USE_HTTP2") == "true",
		CorsOrigins: origins,
	}, nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)

	if err != nil {
		return errors.New("port must be a number")
	}

	if portNum < 1 || portNum > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	return nil
}
