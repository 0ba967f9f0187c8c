// Package validation provides common validation utilities for configuration
// parameters across the batchflow library.
//
// Field validators (ValidatePositive, ValidatePositiveDuration, ...) return
// *errors.ValidationError values that unwrap to errors.ErrInvalidConfiguration.
// Struct applies `validate` tags through go-playground/validator and reports
// the first failing field in the same form.
package validation
