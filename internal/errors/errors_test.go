package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := stderrors.New("file locked")
	err := NewParsingError("failed to read file", cause).WithContext("path", "a.xlsx")

	assert.Equal(t, ErrTypeParsing, err.Type)
	assert.Contains(t, err.Error(), "failed to read file")
	assert.Contains(t, err.Error(), "file locked")
	assert.Equal(t, "a.xlsx", err.Context["path"])
	assert.True(t, stderrors.Is(err, cause))
}

func TestNoData(t *testing.T) {
	err := NewNoDataError("C001")
	require.True(t, IsNoData(err))
	assert.Contains(t, err.Error(), "C001")

	wrapped := fmt.Errorf("run failed: %w", err)
	assert.True(t, IsNoData(wrapped))

	assert.False(t, IsNoData(stderrors.New("other")))
	assert.False(t, IsNoData(nil))
}
