package validate

// This package adds struct and field validation as a thin wrapper around the go-playground/validator package.
//
// e.g. internal/config/config.go
//   type Config struct {
//       APIURL      string         `yaml:"api_url" validate:"required,url"`
//       TickRate    time.Duration  `yaml:"tick_rate" validate:"gt=0"`
//   }
//
// The secret_name tag restricts secret store keys to [A-Za-z0-9_.-].

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// validatorInstance is a shared validator for the application.
// It is initialized once and reused to avoid repeated allocations.
//
//nolint:gochecknoglobals // Shared validator singleton.
var (
	validatorOnce sync.Once
	validatorInst *validator.Validate

	secretNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)
)

// get returns a process-wide singleton of the validator.
func get() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New(validator.WithRequiredStructEnabled())
		_ = validatorInst.RegisterValidation("secret_name", func(fl validator.FieldLevel) bool {
			return secretNamePattern.MatchString(fl.Field().String())
		})
	})
	return validatorInst
}

// Struct validates a struct using the shared validator instance.
func Struct(v any) error {
	return get().Struct(v)
}

// Var validates a single variable against the provided tag constraints.
func Var(field any, tag string) error {
	return get().Var(field, tag)
}
