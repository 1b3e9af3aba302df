package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := WithCode(ErrorTypeAuth, 401, "warm-up rejected")
	assert.Equal(t, "auth error (code 401): warm-up rejected", err.Error())

	wrapped := Wrap(ErrorTypeFilesystem, fs.ErrPermission, "create year directory")
	assert.Equal(t, "filesystem error: create year directory: permission denied", wrapped.Error())
}

func TestTypeOf(t *testing.T) {
	base := New(ErrorTypeParsing, "missing payStatements")
	chained := fmt.Errorf("list statements: %w", base)

	assert.Equal(t, ErrorTypeParsing, TypeOf(chained))
	assert.True(t, IsType(chained, ErrorTypeParsing))
	assert.False(t, IsType(chained, ErrorTypeAuth))
	assert.False(t, IsType(nil, ErrorTypeParsing))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	err := Wrap(ErrorTypeFilesystem, fs.ErrExist, "rename")
	assert.True(t, stderrors.Is(err, fs.ErrExist))
}

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{200, ""},
		{204, ""},
		{302, ""},
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeUnknown},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatusCode(tt.code))
		})
	}
}
