// Copyright (C) 2025 chatlink.net <dev@chatlink.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package models

import "github.com/pkg/errors"

// ErrValidation marks caller-input failures. The API layer maps it to a
// 400 and the client must not retry automatically; everything else is a
// dependency failure mapped to a 500 that the user may retry by hand.
var ErrValidation = errors.New("validation failed")

// Validationf builds a caller-input error with a user-facing message.
func Validationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// IsValidation reports whether err originated from bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
