// Package sanitizer normalizes user-supplied text before validation and
// storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input never produces an error here; it comes
// back empty (or unchanged) and the validator reports it.
package sanitizer
