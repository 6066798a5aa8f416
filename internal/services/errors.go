package services

import "fmt"

// LoadError means the ledger could not be read. Nothing else can be shown
// until the store is reachable again.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load ledger: %v", e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// SaveError means the overwrite failed. The new entry was not kept anywhere.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return fmt.Sprintf("save ledger: %v", e.Err) }
func (e *SaveError) Unwrap() error { return e.Err }

// ValidationError rejects user input before anything is loaded or saved.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }
func (e *ValidationError) Unwrap() error { return e.Err }
