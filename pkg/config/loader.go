package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Validator is implemented by config structs that check their own invariants
// after the environment has been parsed.
type Validator interface {
	Validate() error
}

type entry struct {
	mu     sync.Mutex
	loaded bool
	value  any
}

var (
	cache sync.Map // type name -> *entry

	dotenvOnce sync.Once
)

// Load parses environment variables into v. The first successful parse of a
// type is cached and copied into every later call for the same type.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		// A missing .env file is the normal case in containers.
		_ = godotenv.Load()
	})

	raw, _ := cache.LoadOrStore(typeName[T](), &entry{})
	e := raw.(*entry)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		*v = e.value.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	if val, ok := any(&parsed).(Validator); ok {
		if err := val.Validate(); err != nil {
			return errors.Join(ErrInvalidConfig, err)
		}
	}

	e.value = parsed
	e.loaded = true
	*v = parsed

	return nil
}

// MustLoad works like Load but panics if the configuration cannot be loaded.
// Use it for settings the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: load %s: %v", typeName[T](), err))
	}
}

func typeName[T any]() string {
	t := reflect.TypeFor[T]()
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
