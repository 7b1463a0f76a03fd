package urn

import (
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/metadata-ingest/internal/apperr"
)

const (
	DefaultEnv = "PROD"

	datasetPrefix  = "urn:li:dataset:("
	platformPrefix = "urn:li:dataPlatform:"
	userPrefix     = "urn:li:corpuser:"
)

func MakeDataPlatformURN(platform string) string {
	if strings.HasPrefix(platform, platformPrefix) {
		return platform
	}
	return platformPrefix + platform
}

func MakeUserURN(username string) string {
	if strings.HasPrefix(username, userPrefix) {
		return username
	}
	return userPrefix + username
}

// MakeDatasetURN renders a dataset urn, lower-casing the name when c says so.
func MakeDatasetURN(c *Casing, platform, name, env string) string {
	if env == "" {
		env = DefaultEnv
	}
	if c.Lower() {
		name = strings.ToLower(name)
	}
	return fmt.Sprintf("%s%s,%s,%s)", datasetPrefix, MakeDataPlatformURN(platform), name, env)
}

// DatasetKey is the parsed form of a dataset urn.
type DatasetKey struct {
	Platform string
	Name     string
	Env      string
}

func ParseDatasetURN(u string) (DatasetKey, error) {
	if !strings.HasPrefix(u, datasetPrefix) || !strings.HasSuffix(u, ")") {
		return DatasetKey{}, apperr.NewValidation(fmt.Sprintf("invalid dataset urn %q", u))
	}
	body := strings.TrimSuffix(strings.TrimPrefix(u, datasetPrefix), ")")

	// the name itself may contain commas; platform is first, env is last
	first := strings.Index(body, ",")
	last := strings.LastIndex(body, ",")
	if first < 0 || first == last {
		return DatasetKey{}, apperr.NewValidation(fmt.Sprintf("invalid dataset urn %q: expected platform, name and env", u))
	}

	key := DatasetKey{
		Platform: strings.TrimPrefix(body[:first], platformPrefix),
		Name:     body[first+1 : last],
		Env:      body[last+1:],
	}
	if key.Platform == "" || key.Name == "" || key.Env == "" {
		return DatasetKey{}, apperr.NewValidation(fmt.Sprintf("invalid dataset urn %q: empty component", u))
	}
	return key, nil
}

// NormalizeDatasetURN re-renders u under the casing rule, keeping the platform
// form (short or full) it was written in.
func NormalizeDatasetURN(c *Casing, u string) (string, error) {
	key, err := ParseDatasetURN(u)
	if err != nil {
		return "", err
	}
	if !c.Lower() {
		return u, nil
	}

	body := strings.TrimSuffix(strings.TrimPrefix(u, datasetPrefix), ")")
	platform := body[:strings.Index(body, ",")]
	return fmt.Sprintf("%s%s,%s,%s)", datasetPrefix, platform, strings.ToLower(key.Name), key.Env), nil
}
