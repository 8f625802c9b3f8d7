package repositories

import "errors"

// Storage-level outcomes shared by all repository implementations.
// GORM implementations translate driver errors into these; in-memory
// implementations return them directly.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
