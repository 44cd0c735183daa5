package core

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrorKind classifies domain errors for the delivery layers.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindNotFound
	KindTransition
)

// BusinessError is a named domain rule violation.
type BusinessError struct {
	kind    ErrorKind
	Code    string
	Message string
}

func NewBusinessError(kind ErrorKind, code, msg string) *BusinessError {
	return &BusinessError{kind: kind, Code: code, Message: msg}
}

func NewNotFoundError(code, msg string) *BusinessError {
	return NewBusinessError(KindNotFound, code, msg)
}

func NewConflictError(code, msg string) *BusinessError {
	return NewBusinessError(KindConflict, code, msg)
}

func (e *BusinessError) Error() string   { return e.Message }
func (e *BusinessError) Kind() ErrorKind { return e.kind }

// KindOf returns the kind of the first classified error found in err's chain, 0 if none.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return 0
}

// FieldError is used to indicate an error with a specific struct field or rule.
type FieldError struct {
	Field string
	Error string
	Cause error `json:"-"`
}

// ValidationError carries every violation found by a validation pass.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	return strings.Join(msgs, "; ")
}

func (err ValidationError) Unwrap() error { return err.Err }

func (err ValidationError) Kind() ErrorKind {
	if k := KindOf(err.Err); k != 0 {
		return k
	}
	return KindValidation
}

// Has reports whether one of the violations was caused by target.
func (err ValidationError) Has(target error) bool {
	for _, f := range err.Fields {
		if f.Cause != nil && errors.Is(f.Cause, target) {
			return true
		}
	}
	return false
}

// Violations accumulates failed rules so that all of them are reported in one error.
type Violations struct {
	fields []FieldError
}

// Add records err under field. Nested validation errors are flattened.
func (v *Violations) Add(field string, err error) {
	if err == nil {
		return
	}
	var verr *ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		v.fields = append(v.fields, verr.Fields...)
		return
	}
	v.fields = append(v.fields, FieldError{Field: field, Error: err.Error(), Cause: err})
}

func (v *Violations) Len() int { return len(v.fields) }

// Err returns nil when nothing was recorded, a *ValidationError wrapping err otherwise.
func (v *Violations) Err(err error) error {
	if len(v.fields) == 0 {
		return nil
	}
	flds := make([]FieldError, len(v.fields))
	copy(flds, v.fields)
	return NewValidationError(err, flds...)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
