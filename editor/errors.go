package editor

import (
	"errors"
	"fmt"

	"github.com/shodgson/wysiwym/registry"
)

var (
	// ErrUnknownKind is returned when a doc kind or an editor type has no
	// registration.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrEmptyProduction is returned when a node or mark that must wrap
	// content produces none.
	ErrEmptyProduction = errors.New("empty production")
	// ErrUnsupportedFlow is returned for a block kind whose declared flow is
	// neither inline nor block.
	ErrUnsupportedFlow = errors.New("unsupported flow")
	// ErrNilConversion is returned when a converter produces nothing.
	ErrNilConversion = errors.New("converter returned no node")
	// ErrStructure is returned when the editor tree does not fit the schema.
	ErrStructure = errors.New("invalid structure")
	// ErrNotDocument is returned when the root of a tree is not a document.
	ErrNotDocument = errors.New("root is not a document")

	ErrInconsistentRegistration = registry.ErrInconsistentRegistration
	ErrAmbiguousKind            = registry.ErrAmbiguousKind
	ErrReservedKind             = registry.ErrReservedKind
	ErrPayload                  = registry.ErrPayload
)

// ConversionError reports the kind (or editor type) a conversion failed on.
type ConversionError struct {
	Kind   string
	Err    error
	Detail string
}

func (e *ConversionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Kind, e.Err, e.Detail)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func convErr(kind interface{}, err error, format string, args ...interface{}) error {
	return &ConversionError{
		Kind:   fmt.Sprint(kind),
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}
