package graph

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type ClientConfig struct {
	Server                 string
	Token                  string
	Timeout                time.Duration
	ExtraHeaders           map[string]string
	DisableSSLVerification bool
}

func LoadConfigFromEnv() (*ClientConfig, error) {
	server := os.Getenv("DATAHUB_GMS_URL")
	token := os.Getenv("DATAHUB_GMS_TOKEN")
	timeoutSec := os.Getenv("DATAHUB_GMS_TIMEOUT")

	if server == "" {
		return nil, errors.New("DATAHUB_GMS_URL environment variable not set")
	}

	return &ClientConfig{
		Server: strings.TrimRight(server, "/"),
		Token:  token,
		Timeout: func() time.Duration {
			if timeoutSec == "" {
				return defaultTimeout
			}
			val, err := strconv.Atoi(timeoutSec)
			if err != nil || val <= 0 {
				return defaultTimeout
			}
			return time.Duration(val) * time.Second
		}(),
		DisableSSLVerification: os.Getenv("DATAHUB_GMS_DISABLE_SSL_VERIFICATION") == "true",
	}, nil
}
