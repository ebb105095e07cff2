// Package validator provides struct validation with human-readable,
// translated error messages.
package validator
