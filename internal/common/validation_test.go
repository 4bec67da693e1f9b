package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("miroUrl", "  ", Required).
		Field("file", int64(11*1024*1024), MaxBytes(10*1024*1024)).
		Field("id", "not-a-uuid", UUID)

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 3)
	assert.Contains(t, v.ErrorMessage(), "'miroUrl': is required")
	assert.Contains(t, v.ErrorMessage(), "File size exceeds 10MB limit")
	assert.Contains(t, v.ErrorMessage(), "must be a valid UUID")
}

func TestValidator_NoErrors(t *testing.T) {
	v := NewValidator().
		Field("miroUrl", "https://miro.com/app/board/abc=/", Required).
		Field("file", int64(1024), MaxBytes(10*1024*1024)).
		Field("id", "0b7c5f2e-6d1a-4f53-9d7a-1f2e3d4c5b6a", UUID)

	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Error())
}
