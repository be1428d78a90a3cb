package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-client/pkg/errno"
)

type guardHarness struct {
	enabled bool
	codes   []string
	runs    map[string]int
}

func newGuardHarness(enabled bool) (*Guard, *guardHarness) {
	h := &guardHarness{enabled: enabled, runs: make(map[string]int)}
	g := NewGuard(func() bool { return h.enabled }, func(_ context.Context, code string) error {
		h.codes = append(h.codes, code)
		if code != testCode {
			return errno.ErrTwoFactorRejected
		}
		return nil
	})
	return g, h
}

func (h *guardHarness) op(name string) Operation {
	return func(context.Context) (any, error) {
		h.runs[name]++
		return name + "-done", nil
	}
}

func TestGuardRunsImmediatelyWhenDisabled(t *testing.T) {
	g, h := newGuardHarness(false)

	res, err := g.Do(context.Background(), "send", h.op("send"))
	require.NoError(t, err)
	assert.False(t, res.Pending)
	assert.Equal(t, "send-done", res.Value)
	assert.Equal(t, 1, h.runs["send"])
	assert.Empty(t, h.codes)

	_, ok := g.Pending()
	assert.False(t, ok)
}

func TestGuardOperationErrorIsReturned(t *testing.T) {
	g, _ := newGuardHarness(false)
	boom := errors.New("boom")

	res, err := g.Do(context.Background(), "send", func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "send", res.Action)
}

func TestGuardParksAndResumesOnce(t *testing.T) {
	g, h := newGuardHarness(true)
	ctx := context.Background()

	res, err := g.Do(ctx, "send", h.op("send"))
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Zero(t, h.runs["send"])

	res, err = g.Resume(ctx, "111111")
	assert.True(t, errors.Is(err, errno.ErrTwoFactorRejected))
	assert.True(t, res.Pending)
	assert.Zero(t, h.runs["send"])

	res, err = g.Resume(ctx, testCode)
	require.NoError(t, err)
	assert.Equal(t, "send-done", res.Value)
	assert.Equal(t, 1, h.runs["send"])

	_, err = g.Resume(ctx, testCode)
	assert.True(t, errors.Is(err, errno.ErrNoPendingAction))
	assert.Equal(t, 1, h.runs["send"])
}

func TestGuardNewOperationReplacesPending(t *testing.T) {
	g, h := newGuardHarness(true)
	ctx := context.Background()

	_, err := g.Do(ctx, "send", h.op("send"))
	require.NoError(t, err)
	_, err = g.Do(ctx, "disable", h.op("disable"))
	require.NoError(t, err)

	name, ok := g.Pending()
	assert.True(t, ok)
	assert.Equal(t, "disable", name)

	_, err = g.Resume(ctx, testCode)
	require.NoError(t, err)
	assert.Zero(t, h.runs["send"])
	assert.Equal(t, 1, h.runs["disable"])
}

func TestGuardCancel(t *testing.T) {
	g, h := newGuardHarness(true)
	ctx := context.Background()

	_, err := g.Do(ctx, "send", h.op("send"))
	require.NoError(t, err)
	g.Cancel()

	_, err = g.Resume(ctx, testCode)
	assert.True(t, errors.Is(err, errno.ErrNoPendingAction))
	assert.Empty(t, h.codes)
	assert.Zero(t, h.runs["send"])
}

func TestGuardServerRejectionBecomesTwoFactorRejected(t *testing.T) {
	g := NewGuard(func() bool { return true }, func(context.Context, string) error {
		return errno.ErrServerRejected.WithMessage("Invalid 2FA token")
	})
	ctx := context.Background()

	_, err := g.Do(ctx, "send", func(context.Context) (any, error) { return nil, nil })
	require.NoError(t, err)

	res, err := g.Resume(ctx, "000000")
	assert.True(t, errors.Is(err, errno.ErrTwoFactorRejected))
	assert.Equal(t, "Invalid 2FA token", err.Error())
	assert.True(t, res.Pending)
}

func TestGuardTransportFailureKeepsKind(t *testing.T) {
	g := NewGuard(func() bool { return true }, func(context.Context, string) error {
		return errno.ErrTransport
	})
	ctx := context.Background()

	_, _ = g.Do(ctx, "send", func(context.Context) (any, error) { return nil, nil })
	_, err := g.Resume(ctx, testCode)
	assert.Equal(t, errno.KindTransport, errno.KindOf(err))

	_, ok := g.Pending()
	assert.True(t, ok)
}
