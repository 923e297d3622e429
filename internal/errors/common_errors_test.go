package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "file read", errType: ErrTypeFileRead, expected: "FILE_READ"},
		{name: "schema mismatch", errType: ErrTypeSchemaMismatch, expected: "SCHEMA_MISMATCH"},
		{name: "invalid country", errType: ErrTypeInvalidCountry, expected: "INVALID_COUNTRY"},
		{name: "unsupported mode", errType: ErrTypeUnsupportedMode, expected: "UNSUPPORTED_MODE"},
		{name: "parsing", errType: ErrTypeParsing, expected: "PARSING"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    &AppError{Type: ErrTypeSchemaMismatch, Message: "missing column H07"},
			wantMessage: "[SCHEMA_MISMATCH] missing column H07",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeFileRead,
				Message: "cannot read Hourly_2012_3.xls",
				Cause:   fmt.Errorf("zip: not a valid zip file"),
			},
			wantMessage: "[FILE_READ] cannot read Hourly_2012_3.xls: zip: not a valid zip file",
		},
		{
			name:        "error with empty message",
			appError:    &AppError{Type: ErrTypeValidation},
			wantMessage: "[VALIDATION] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewFileReadError("/data/Monthly_2010.xls", cause)

	assert.Same(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "/data/Monthly_2010.xls", err.Context["file"])

	err.WithContext("sheet", "Statistics")
	assert.Equal(t, "Statistics", err.Context["sheet"])

	bare := &AppError{Type: ErrTypeStorage, Message: "x"}
	bare.WithContext("k", 1)
	require.NotNil(t, bare.Context)
	assert.Equal(t, 1, bare.Context["k"])
}

func TestIsType(t *testing.T) {
	schema := NewSchemaMismatchError("a.xls", "duplicate hour H03")
	wrapped := fmt.Errorf("build hourly: %w", schema)
	nested := NewFileReadError("a.xls", schema)

	assert.True(t, IsType(schema, ErrTypeSchemaMismatch))
	assert.True(t, IsType(wrapped, ErrTypeSchemaMismatch))
	assert.True(t, IsType(nested, ErrTypeFileRead))
	assert.True(t, IsType(nested, ErrTypeSchemaMismatch))
	assert.False(t, IsType(wrapped, ErrTypeUnsupportedMode))
	assert.False(t, IsType(errors.New("plain"), ErrTypeFileRead))
	assert.False(t, IsType(nil, ErrTypeFileRead))
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		contains string
	}{
		{"invalid country", NewInvalidCountryError("XX"), ErrTypeInvalidCountry, `"XX"`},
		{"unsupported mode", NewUnsupportedModeError("how", "median"), ErrTypeUnsupportedMode, `"median"`},
		{"storage", NewStorageError("rename snapshot", errors.New("EXDEV")), ErrTypeStorage, "EXDEV"},
		{"config", NewConfigError("bad workers", nil), ErrTypeConfig, "bad workers"},
		{"not found", NewNotFoundError("indicator gdp"), ErrTypeNotFound, "indicator gdp not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Contains(t, tt.err.Error(), tt.contains)
		})
	}
}
