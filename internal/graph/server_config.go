package graph

import "strings"

// DatasetURNNameCasingKey is the server config flag that turns on lower-cased dataset names.
const DatasetURNNameCasingKey = "datasetUrnNameCasing"

// ServerConfig is the raw config document reported by the metadata service.
type ServerConfig map[string]any

// Flag reports whether key holds a truthy value.
func (sc ServerConfig) Flag(key string) bool {
	v, ok := sc[key]
	if !ok || v == nil {
		return false
	}

	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true
		}
		return false
	case float64:
		return val != 0
	case int:
		return val != 0
	case map[string]any:
		return len(val) > 0
	case []any:
		return len(val) > 0
	default:
		return false
	}
}

func (sc ServerConfig) Version() string {
	versions, ok := sc["versions"].(map[string]any)
	if !ok {
		return ""
	}
	gms, ok := versions["linkedin/datahub"].(map[string]any)
	if !ok {
		return ""
	}
	v, _ := gms["version"].(string)
	return v
}
