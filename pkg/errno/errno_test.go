package errno

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrno_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("send-token: %w", ErrServerRejected.WithMessage("insufficient gas"))

	assert.True(t, errors.Is(err, ErrServerRejected))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
	assert.Equal(t, "send-token: insufficient gas", err.Error())
}

func TestErrno_WithEmptyMessageKeepsDefault(t *testing.T) {
	assert.Equal(t, ErrTransport.Message, ErrTransport.WithMessage("").Message)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"transport", ErrBadResponse, KindTransport},
		{"server", fmt.Errorf("wrap: %w", ErrTwoFactorRejected), KindServer},
		{"validation", ErrInvalidAddress, KindValidation},
		{"auth pointer", &ErrAuthRequired, KindAuth},
		{"plain error", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestDecode(t *testing.T) {
	code, msg := Decode(nil)
	assert.Equal(t, OK.Code, code)
	assert.Equal(t, OK.Message, msg)

	code, msg = Decode(fmt.Errorf("x: %w", ErrPasswordMismatch))
	assert.Equal(t, ErrPasswordMismatch.Code, code)
	assert.Equal(t, ErrPasswordMismatch.Message, msg)

	code, msg = Decode(errors.New("boom"))
	assert.Equal(t, Unknown.Code, code)
	assert.Equal(t, "boom", msg)
}
