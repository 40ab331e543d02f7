package simpleupload

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest accepted base name, in characters
const MaxNameLength = 1024

// Validate checks a request against a rule and returns the validated
// attributes. Every field is checked; a failure returns a *ValidationError
// listing all of them.
func Validate(req Request, rule Constraints) (Attributes, error) {
	var v fieldErrors

	name, extension, ok := DestructureFilename(req.Name)
	switch {
	case !ok && req.Name != nil:
		v.add(FieldError{Field: "name", Code: CodeString, Message: "The name must be a string."})
	case name == "":
		v.add(FieldError{Field: "name", Code: CodeRequired, Message: "The name field is required."})
	case utf8.RuneCountInString(name) > MaxNameLength:
		v.add(FieldError{
			Field:   "name",
			Code:    CodeTooLong,
			Message: fmt.Sprintf("The name may not be greater than %d characters.", MaxNameLength),
		})
	}

	accepted := rule.Extensions()
	switch {
	case extension == "":
		v.add(FieldError{Field: "extension", Code: CodeRequired, Message: "The extension field is required."})
	case len(accepted) > 0 && !slices.Contains(accepted, extension):
		v.add(FieldError{
			Field:    "extension",
			Code:     CodeUnsupportedExtension,
			Message:  fmt.Sprintf("The file type must be one of the following: %s.", strings.Join(accepted, ", ")),
			Accepted: accepted,
		})
	}

	mimeType, isString := req.Type.(string)
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	mimes := rule.Mimes()
	switch {
	case !isString && req.Type != nil:
		v.add(FieldError{Field: "type", Code: CodeString, Message: "The type must be a string."})
	case mimeType == "":
		v.add(FieldError{Field: "type", Code: CodeRequired, Message: "The type field is required."})
	case len(mimes) > 0 && !hasMimePrefix(mimes, mimeType):
		v.add(FieldError{
			Field:    "type",
			Code:     CodeUnsupportedType,
			Message:  "The file type is not supported.",
			Accepted: mimes,
		})
	}

	size, sizeErr := parseDeclaredSize(req.Size)
	minSize, maxSize := rule.MinSize(), rule.MaxSize()
	switch {
	case sizeErr != nil:
		v.add(*sizeErr)
	case size > maxSize:
		v.add(FieldError{
			Field:   "size",
			Code:    CodeSizeOutOfRange,
			Message: fmt.Sprintf("The file cannot exceed %s.", FormatFileSize(maxSize)),
			Min:     &minSize,
			Max:     &maxSize,
		})
	case size < minSize:
		v.add(FieldError{
			Field:   "size",
			Code:    CodeSizeOutOfRange,
			Message: fmt.Sprintf("The file must be at least %s.", FormatFileSize(minSize)),
			Min:     &minSize,
			Max:     &maxSize,
		})
	}

	if err := v.err(); err != nil {
		return Attributes{}, err
	}

	return Attributes{
		Name:      name,
		Extension: extension,
		MimeType:  mimeType,
		Size:      size,
		Meta:      req.Meta,
	}, nil
}

// DeclaredSize converts a declared size the same way Validate does.
// ok is false when the value is missing or not an integer.
func DeclaredSize(v any) (size int64, ok bool) {
	n, fe := parseDeclaredSize(v)
	return n, fe == nil
}

// parseDeclaredSize accepts the shapes a size arrives in from JSON, forms
// and Go callers. Fractional values are rejected.
func parseDeclaredSize(v any) (int64, *FieldError) {
	required := &FieldError{Field: "size", Code: CodeRequired, Message: "The size field is required."}
	notInt := &FieldError{Field: "size", Code: CodeInteger, Message: "The size must be an integer."}

	switch s := v.(type) {
	case nil:
		return 0, required
	case int:
		return int64(s), nil
	case int32:
		return int64(s), nil
	case int64:
		return s, nil
	case uint32:
		return int64(s), nil
	case float64:
		if s != math.Trunc(s) || math.IsInf(s, 0) || s >= math.MaxInt64 || s < math.MinInt64 {
			return 0, notInt
		}
		return int64(s), nil
	case json.Number:
		n, err := s.Int64()
		if err != nil {
			return 0, notInt
		}
		return n, nil
	case string:
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, required
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, notInt
		}
		return n, nil
	default:
		return 0, notInt
	}
}

type fieldErrors []FieldError

func (v *fieldErrors) add(fe FieldError) {
	*v = append(*v, fe)
}

func (v fieldErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Errors: v}
}
