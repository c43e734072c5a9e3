// Package errs defines the error shapes returned to API clients.
//
// HTTPError carries a machine code, a message and optional field errors so
// every failure leaves the service in the same JSON form.
package errs
