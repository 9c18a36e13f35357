package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransport(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantTimeout bool
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantTimeout: true},
		{name: "wrapped deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), wantTimeout: true},
		{name: "net timeout", err: timeoutErr{}, wantTimeout: true},
		{name: "connection refused", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transport("completion", tt.err)
			var te *TimeoutError
			var ne *NetworkError
			if tt.wantTimeout {
				assert.True(t, errors.As(err, &te))
			} else {
				assert.True(t, errors.As(err, &ne))
			}
			assert.True(t, IsRetryable(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, Transport("completion", nil))
}

func TestBackendError(t *testing.T) {
	err := fmt.Errorf("ask: %w", &BackendError{Service: "completion", StatusCode: 503, Message: "overloaded"})

	assert.False(t, IsRetryable(err))
	assert.Equal(t, 503, StatusCode(err))
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
}
