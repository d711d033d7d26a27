package dataagentctl

import (
	"fmt"
	"strings"
	"time"
)

// Environment variables read by OptionsFromEnv. OPENROUTER_API_KEY matches the
// name the API server falls back to for its own completion key.
const (
	EnvBaseURL       = "DATAAGENT_API_URL"
	EnvAPIKey        = "DATAAGENT_API_KEY"
	EnvCompletionKey = "OPENROUTER_API_KEY"
	EnvTimeout       = "DATAAGENT_CLI_TIMEOUT"
)

// OptionsFromEnv builds default Options from lookup. Unparseable values are
// ignored and reported as warnings; flags can still override everything.
func OptionsFromEnv(lookup func(string) (string, bool)) (Options, []string) {
	get := func(key string) string {
		if lookup == nil {
			return ""
		}
		value, _ := lookup(key)
		return strings.TrimSpace(value)
	}

	options := Options{
		BaseURL:       get(EnvBaseURL),
		APIKey:        get(EnvAPIKey),
		CompletionKey: get(EnvCompletionKey),
	}
	var warnings []string
	if raw := get(EnvTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("invalid %s %q: %v", EnvTimeout, raw, err))
		case timeout <= 0:
			warnings = append(warnings, fmt.Sprintf("invalid %s %q: must be positive", EnvTimeout, raw))
		default:
			options.Timeout = timeout
		}
	}
	return options, warnings
}
