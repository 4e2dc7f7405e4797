package config

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Repository is a dotted-path configuration store.
//
// Keys use Laravel-style dot notation ("app.name", "database.host");
// values are arbitrary. The container consumes a Repository through its
// Config parameter directives and GetConfig.
type Repository struct {
	mu   sync.RWMutex
	data map[string]any
}

// New creates an empty Repository.
func New() *Repository {
	return &Repository{data: make(map[string]any)}
}

// Load reads .env (if present), then populates a Repository with the
// framework defaults overridden by environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Repository {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	r := New()
	r.loadDefaults()
	r.loadFromEnv()
	return r
}

// ── defaults + env mapping ──────────────────────────────────────────────────

func (r *Repository) loadDefaults() {
	defaults := map[string]any{
		"app.name":  "GoContainer",
		"app.env":   "local",
		"app.debug": true,
		"app.key":   "",
	}
	for key, value := range defaults {
		r.Set(key, value)
	}
}

func (r *Repository) loadFromEnv() {
	envMappings := map[string]string{
		"APP_NAME":  "app.name",
		"APP_ENV":   "app.env",
		"APP_DEBUG": "app.debug",
		"APP_KEY":   "app.key",
	}
	for envKey, configKey := range envMappings {
		if v := os.Getenv(envKey); v != "" {
			r.Set(configKey, coerce(v))
		}
	}
}

// coerce converts an env string to bool/int where it parses cleanly.
func coerce(v string) any {
	if v == "true" || v == "false" || v == "1" || v == "0" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return v
}

// ── accessors ───────────────────────────────────────────────────────────────

// Set stores a value under a dotted key.
func (r *Repository) Set(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = value
}

// Get returns the value for a dotted key, falling back to defaultVal.
// Keys containing a ".." traversal sequence never match.
func (r *Repository) Get(key string, defaultVal ...any) any {
	var fallback any
	if len(defaultVal) > 0 {
		fallback = defaultVal[0]
	}
	if key == "" || strings.Contains(key, "..") {
		return fallback
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.data[key]; ok {
		return v
	}
	return fallback
}

// Has reports whether a dotted key is set.
func (r *Repository) Has(key string) bool {
	if key == "" || strings.Contains(key, "..") {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[key]
	return ok
}

// GetString returns a string value, falling back to defaultVal.
func (r *Repository) GetString(key, defaultVal string) string {
	if v, ok := r.Get(key).(string); ok {
		return v
	}
	return defaultVal
}

// GetInt returns an int value, falling back to defaultVal.
func (r *Repository) GetInt(key string, defaultVal int) int {
	switch v := r.Get(key).(type) {
	case int:
		return v
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBool returns a bool value, falling back to defaultVal.
func (r *Repository) GetBool(key string, defaultVal bool) bool {
	switch v := r.Get(key).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// All returns a copy of every key/value pair (for debugging).
func (r *Repository) All() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// ── package-level env helpers ───────────────────────────────────────────────

// Env returns a raw env value, falling back to defaultVal.
func Env(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// EnvBool returns a bool env value, falling back to defaultVal.
func EnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}
