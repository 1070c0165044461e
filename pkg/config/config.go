// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: a
// default .env file is loaded once per process (if present), then struct
// fields annotated with `env` tags are populated from the environment. Each
// configuration type is parsed at most once and cached for the lifetime of
// the process.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("config: nil pointer")
	// ErrParsingConfig is returned when the environment cannot be parsed
	// into the target struct.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)

var (
	dotenvOnce sync.Once

	mu    sync.RWMutex
	cache = make(map[string]any)
)

// Load populates cfg from the environment. The first call for a given type
// does the actual parsing; subsequent calls return the cached value.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// The .env file is optional; a missing file is not an error.
		_ = godotenv.Load()
	})

	key := typeName[T]()

	mu.RLock()
	if cached, ok := cache[key]; ok {
		*cfg = cached.(T)
		mu.RUnlock()
		return nil
	}
	mu.RUnlock()

	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	cache[key] = *cfg
	mu.Unlock()

	return nil
}

// MustLoad works like Load but panics on failure. Use for configuration the
// application cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeName[T](), err))
	}
}

// ResetCache clears all cached configurations. Intended for tests that
// mutate the process environment between loads.
func ResetCache() {
	mu.Lock()
	cache = make(map[string]any)
	mu.Unlock()
}

func typeName[T any]() string {
	var zero T
	if t := reflect.TypeOf(zero); t != nil {
		return t.String()
	}
	return fmt.Sprintf("%T", *new(T))
}
