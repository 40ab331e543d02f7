package simpleupload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error types
var (
	// ErrUnresolvedBucket indicates neither the uploader nor its disk names a bucket
	ErrUnresolvedBucket = errors.New("no bucket could be resolved for this upload, check the disk configuration or set a bucket explicitly")

	// ErrDiskNotFound indicates the uploader's disk is not registered
	ErrDiskNotFound = errors.New("disk not found")

	// ErrObjectNotFound indicates an uploaded object does not exist (yet)
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidRule indicates a rule with inconsistent constraints
	ErrInvalidRule = errors.New("invalid upload rule")

	// ErrFileNotSet indicates the upload context was read before validation
	// produced it. It is raised with panic.
	ErrFileNotSet = errors.New("upload file accessed before it has been set")

	// ErrPresignNotGenerated indicates a result was requested before a policy
	// was signed. It is raised with panic.
	ErrPresignNotGenerated = errors.New("presign has not been generated")
)

// Field error codes
const (
	CodeRequired             = "required"
	CodeString               = "string"
	CodeInteger              = "integer"
	CodeTooLong              = "max_length"
	CodeUnsupportedExtension = "unsupported_extension"
	CodeUnsupportedType      = "unsupported_type"
	CodeSizeOutOfRange       = "size_out_of_range"
)

// FieldError is one failed check on one request field
type FieldError struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Accepted []string `json:"accepted,omitempty"`
	Min      *int64   `json:"min,omitempty"`
	Max      *int64   `json:"max,omitempty"`
}

// ValidationError carries every failed check of a rejected request
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return "upload validation failed: " + strings.Join(parts, "; ")
}

// Fields groups the messages by field
func (e *ValidationError) Fields() map[string][]string {
	fields := make(map[string][]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field] = append(fields[fe.Field], fe.Message)
	}
	return fields
}

// Has reports whether the field failed at least one check
func (e *ValidationError) Has(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// FieldNames returns the failed fields in sorted order
func (e *ValidationError) FieldNames() []string {
	fields := e.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidationError reports whether err is, or wraps, a *ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// DiskError represents a failure talking to a disk
type DiskError struct {
	Disk string
	Key  string
	Op   string
	Err  error
}

func (e *DiskError) Error() string {
	return fmt.Sprintf("disk operation %s failed for key %s on disk %s: %v", e.Op, e.Key, e.Disk, e.Err)
}

func (e *DiskError) Unwrap() error {
	return e.Err
}
