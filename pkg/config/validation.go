package config

import (
	"reflect"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// Validator is an optional interface configuration structs may
// implement for checks that tags cannot express. When the struct passed
// to [Loader.Load] implements Validator, Validate is called after the
// required-tag pass succeeds.
//
// Errors that are already [*apperr.Error] pass through unchanged;
// anything else is wrapped with [apperr.CodeValidation].
type Validator interface {
	Validate() error
}

func validate(cfg any, rv reflect.Value) error {
	if err := validateRequired(rv, ""); err != nil {
		return err
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			if _, isAppErr := apperr.AsError(err); isAppErr {
				return err
			}
			return apperr.Wrap(err, apperr.CodeValidation,
				"config: custom validation failed")
		}
	}

	return nil
}

// validateRequired checks that every field tagged `required:"true"` is
// non-zero. path carries the dotted field path for error messages, for
// example "Postgres.Host".
func validateRequired(rv reflect.Value, path string) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		fieldPath := sf.Name
		if path != "" {
			fieldPath = path + "." + sf.Name
		}

		if field.Kind() == reflect.Struct && sf.Type != durationType {
			if err := validateRequired(field, fieldPath); err != nil {
				return err
			}
			continue
		}

		if sf.Tag.Get("required") != "true" {
			continue
		}

		if field.IsZero() {
			return apperr.Newf(apperr.CodeValidationRequired,
				"config: required field %q is empty", fieldPath)
		}
	}

	return nil
}
