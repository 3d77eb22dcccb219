package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	err := NotFound("could not find ticket abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("get ticket: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := Wrap(CodeInternal, "store failure", errors.New("connection reset"))
	assert.Equal(t, "store failure: connection reset", err.Error())
	assert.Equal(t, "forbidden", ErrForbidden.Error())
}

func TestCodeOf_UnknownIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeAuthentication, CodeOf(Authentication("bad password")))
}

func TestFromStore(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "permission denied", err: fmt.Errorf("db: %w", ErrPermissionDenied), want: CodeForbidden},
		{name: "taxonomy passes through", err: NotFound("gone"), want: CodeNotFound},
		{name: "anything else", err: errors.New("timeout"), want: CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(FromStore("store", tt.err)))
		})
	}

	assert.NoError(t, FromStore("store", nil))
}
