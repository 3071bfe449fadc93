package artifact

import "fmt"

var (
	// ErrNotFound is returned when no entry exists for the given artifact /
	// name pair in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")
)
