package loader

import (
	"os"
	"strconv"
	"strings"
)

// DefaultEnvPrefix is the prefix of livetree environment variables.
const DefaultEnvPrefix = "LIVETREE_"

// EnvLoader loads configuration from environment variables.
//
// LIVETREE_SCRIPT_MAX_CALLS becomes script.max_calls: the
// first word names the section and the rest form the snake_case key.
type EnvLoader struct {
	prefix  string
	environ func() []string
}

// NewEnvLoader creates a loader for variables starting with prefix.
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, environ: os.Environ}
}

// NewEnvLoaderWithEnviron reads variables from environ instead of the
// process environment.
func NewEnvLoaderWithEnviron(prefix string, environ []string) *EnvLoader {
	return &EnvLoader{prefix: prefix, environ: func() []string { return environ }}
}

// Load collects the prefixed variables. Empty values are kept.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		section, key, ok := l.envToPath(name)
		if !ok {
			continue
		}
		sub, _ := config[section].(map[string]any)
		if sub == nil {
			sub = make(map[string]any)
			config[section] = sub
		}
		sub[key] = parseValue(value)
	}
	return config, nil
}

func (l *EnvLoader) envToPath(name string) (section, key string, ok bool) {
	rest := strings.ToLower(strings.TrimPrefix(name, l.prefix))
	section, key, ok = strings.Cut(rest, "_")
	if !ok || section == "" || key == "" {
		return "", "", false
	}
	return section, key, true
}

// parseValue converts booleans, integers and floats. Anything else,
// durations included, stays a string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = strings.TrimSpace(p)
		}
		return out
	}
	return s
}
