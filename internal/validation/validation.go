// Package validation binds request payloads and validates them.
//
// Rules live in `validate` struct tags (go-playground/validator) or in a
// payload's own Validate method; failures are converted into field errors
// the client can act on.
package validation
