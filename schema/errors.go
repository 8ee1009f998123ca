package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaResolution is matched by every *ResolutionError.
	ErrSchemaResolution = errors.New("schema resolution failed")
	// ErrInvalidSchema reports a document that is not a JSON Schema.
	ErrInvalidSchema = errors.New("invalid schema")
)

// ResolutionError reports a reference or keyword that could not be resolved.
type ResolutionError struct {
	Ref    string
	Reason string
}

func (e *ResolutionError) Error() string {
	if e.Ref == "" {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", e.Ref, e.Reason)
}

// Is makes errors.Is(err, ErrSchemaResolution) hold.
func (e *ResolutionError) Is(target error) bool { return target == ErrSchemaResolution }
