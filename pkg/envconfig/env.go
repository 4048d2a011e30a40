package envconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

// First returns the first non-empty variable among names, or fallback.
func First(fallback string, names ...string) string {
	for _, name := range names {
		if value := Get(name, ""); value != "" {
			return value
		}
	}
	return fallback
}

// Duration parses a duration variable, returning fallback when unset.
func Duration(name string, fallback time.Duration) (time.Duration, error) {
	raw := Get(name, "")
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return d, nil
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
