// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/danielhkuo/dojogo/models"
)

var (
	validate = newValidator()

	sha256HexPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("kendorank", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.KendoRanks, fl.Field().String())
	})

	v.RegisterValidation("sha256hex", func(fl validator.FieldLevel) bool {
		return sha256HexPattern.MatchString(fl.Field().String())
	})

	v.RegisterValidation("blobname", func(fl validator.FieldLevel) bool {
		return validBlobName(fl.Field().String())
	})

	return v
}

// validBlobName reports whether name is a relative path that stays inside
// the folder it is joined onto
func validBlobName(name string) bool {
	if name == "" || strings.ContainsAny(name, "\\\x00") {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// Validate checks v's validate tags and describes the first failing field
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return errors.New(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Struct.field.sub"; drop the struct name
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "kendorank":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(models.KendoRanks, ", "))
	case "sha256hex":
		return fmt.Sprintf("%s must be 64 hexadecimal characters", field)
	case "blobname":
		return fmt.Sprintf("%s must be a relative path without empty, '.' or '..' segments", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
