package simpleupload

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	rule := MustRule(Mimes("image/"), Extensions("png", "jpg"), Size(0, 2048))

	attrs, err := Validate(Request{Name: "test.PNG", Type: " Image/PNG ", Size: 1024, Meta: map[string]any{"a": 1}}, rule)
	require.NoError(t, err)
	assert.Equal(t, Attributes{
		Name:      "test",
		Extension: "png",
		MimeType:  "image/png",
		Size:      1024,
		Meta:      map[string]any{"a": 1},
	}, attrs)
}

func TestValidateSizeBoundaries(t *testing.T) {
	rule := MustRule(Size(1024, 2048))

	tests := []struct {
		size int64
		ok   bool
	}{
		{1023, false},
		{1024, true},
		{2048, true},
		{2049, false},
	}

	for _, tt := range tests {
		_, err := Validate(NewRequest("a.bin", "application/octet-stream", tt.size), rule)
		if tt.ok {
			assert.NoError(t, err, "size %d", tt.size)
			continue
		}

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "size %d", tt.size)
		assert.Equal(t, []string{"size"}, verr.FieldNames())
		assert.Equal(t, CodeSizeOutOfRange, verr.Errors[0].Code)
		assert.Equal(t, int64(1024), *verr.Errors[0].Min)
		assert.Equal(t, int64(2048), *verr.Errors[0].Max)
	}
}

func TestValidateSizeMessages(t *testing.T) {
	rule := MustRule(Size(1024, 2048))

	_, err := Validate(NewRequest("a.bin", "x/y", 10), rule)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The file must be at least 1 KB."}, verr.Fields()["size"])

	_, err = Validate(NewRequest("a.bin", "x/y", 4096), rule)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The file cannot exceed 2 KB."}, verr.Fields()["size"])
}

func TestValidateTypeBoundary(t *testing.T) {
	rule := MustRule(Mimes("image/"))

	tests := []struct {
		mime string
		ok   bool
	}{
		{"image/png", true},
		{"images/png", false},
		{"audio/mp3", false},
		{"image", false},
	}

	for _, tt := range tests {
		_, err := Validate(NewRequest("a.png", tt.mime, 1), rule)
		if tt.ok {
			assert.NoError(t, err, tt.mime)
			continue
		}

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, tt.mime)
		assert.Equal(t, []string{"The file type is not supported."}, verr.Fields()["type"])
		assert.Equal(t, []string{"image/"}, verr.Errors[0].Accepted)
	}
}

func TestValidateExtension(t *testing.T) {
	rule := MustRule(Extensions("png", "jpg"))

	_, err := Validate(NewRequest("song.mp3", "audio/mpeg", 1), rule)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"The file type must be one of the following: png, jpg."}, verr.Fields()["extension"])
	assert.Equal(t, CodeUnsupportedExtension, verr.Errors[0].Code)
	assert.Equal(t, []string{"png", "jpg"}, verr.Errors[0].Accepted)

	_, err = Validate(NewRequest("photo.JPG", "image/jpeg", 1), rule)
	assert.NoError(t, err)
}

func TestValidateCollectsAllFields(t *testing.T) {
	rule := MustRule(Mimes("image/"), Extensions("png"), Size(0, 2048))

	_, err := Validate(NewRequest("test.mp3", "audio/mp3", 1024), rule)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"extension", "type"}, verr.FieldNames())
	assert.True(t, verr.Has("extension"))
	assert.True(t, verr.Has("type"))
	assert.False(t, verr.Has("size"))
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "extension: ")
}

func TestValidateMissingInput(t *testing.T) {
	_, err := Validate(Request{}, MustRule())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"extension", "name", "size", "type"}, verr.FieldNames())
	for _, fe := range verr.Errors {
		assert.Equal(t, CodeRequired, fe.Code, fe.Field)
	}
}

func TestValidateMalformedInput(t *testing.T) {
	_, err := Validate(Request{Name: 12, Type: true, Size: "lots"}, MustRule())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	codes := map[string]string{}
	for _, fe := range verr.Errors {
		codes[fe.Field] = fe.Code
	}
	assert.Equal(t, map[string]string{
		"name":      CodeString,
		"extension": CodeRequired,
		"type":      CodeString,
		"size":      CodeInteger,
	}, codes)
}

func TestValidateNameLength(t *testing.T) {
	long := strings.Repeat("a", MaxNameLength)
	_, err := Validate(NewRequest(long+".txt", "text/plain", 1), MustRule())
	assert.NoError(t, err)

	_, err = Validate(NewRequest(long+"a.txt", "text/plain", 1), MustRule())
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeTooLong, verr.Errors[0].Code)
}

func TestValidateSizeShapes(t *testing.T) {
	rule := MustRule(Size(0, 100))

	for _, size := range []any{50, int64(50), float64(50), json.Number("50"), " 50 ", int32(50)} {
		attrs, err := Validate(Request{Name: "a.txt", Type: "text/plain", Size: size}, rule)
		require.NoError(t, err, "%T", size)
		assert.Equal(t, int64(50), attrs.Size)
	}

	for _, size := range []any{50.5, json.Number("5e-1"), "50kb", []int{1}, math.Exp2(63), math.Inf(1), math.NaN()} {
		_, err := Validate(Request{Name: "a.txt", Type: "text/plain", Size: size}, rule)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "%v", size)
		assert.Equal(t, CodeInteger, verr.Errors[0].Code)
	}
}
