// Package repository defines the persistence contracts the auth core depends
// on. The interfaces are storage-agnostic; concrete drivers live in
// internal/store/pg (normative) and internal/store/memory (dev/test double).
//
// Conventions:
//   - context.Context is always the first parameter
//   - identifier lookups are case-insensitive
//   - refresh tokens are keyed by digest, never by plaintext value
//   - domain errors are the sentinels in errors.go
package repository
