// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input never produces an error; at worst the
// result is an empty string.
package sanitizer
