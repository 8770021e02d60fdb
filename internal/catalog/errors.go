package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrModelNotFound = errors.New("model not found")
	ErrNotOwner      = errors.New("only the developer can modify this model")
)

// ValidationError reports the required fields missing from a create
// request. It is raised before anything touches the database.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}
