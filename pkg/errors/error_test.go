package errors

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("sending: %w", &ConnectionError{Op: OpDial, Addr: "127.0.0.1:1", Err: syscall.ECONNREFUSED})

	var cerr *ConnectionError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, OpDial, cerr.Op)
	assert.True(t, errors.Is(err, syscall.ECONNREFUSED))
	assert.False(t, cerr.Timeout())
	assert.Equal(t, "sending: dial 127.0.0.1:1: connection refused", err.Error())
}

func TestResponseErrorTimeout(t *testing.T) {
	err := &ResponseError{Err: os.ErrDeadlineExceeded}
	assert.True(t, err.Timeout())
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))

	var cerr *ConnectionError
	assert.False(t, errors.As(err, &cerr))
}

func TestMalformedHeadersError(t *testing.T) {
	var err error = &MalformedHeadersError{Len: 3}
	assert.True(t, errors.Is(err, ErrMalformedHeaders))
	assert.Contains(t, err.Error(), "odd length 3")
}

func TestPrefixFromDepth(t *testing.T) {
	tests := []struct {
		depth int
		want  string
	}{
		{0, ""},
		{1, "  "},
		{3, "      "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, prefixFromDepth(tt.depth))
	}
}
