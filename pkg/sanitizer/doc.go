// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be normalized
// is returned in a form the validators will reject.
package sanitizer
