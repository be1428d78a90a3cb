package session

import (
	"context"
	"errors"
	"sync"

	"wallet-client/pkg/errno"
)

// Result is what a guarded operation returns. Pending means the operation
// is parked until Resume is called with a valid code.
type Result struct {
	Pending bool
	Action  string
	Value   any
}

// Operation is a sensitive action with its arguments already captured.
type Operation func(ctx context.Context) (any, error)

// Verifier checks a 2FA code with the backend.
type Verifier func(ctx context.Context, code string) error

type pendingOp struct {
	name string
	op   Operation
}

// Guard defers sensitive operations behind a 2FA check. At most one
// operation is pending; parking a new one replaces the old.
type Guard struct {
	mu      sync.Mutex
	enabled func() bool
	verify  Verifier
	pending *pendingOp
}

func NewGuard(enabled func() bool, verify Verifier) *Guard {
	return &Guard{enabled: enabled, verify: verify}
}

// Do runs op right away when 2FA is off, otherwise parks it.
func (g *Guard) Do(ctx context.Context, name string, op Operation) (Result, error) {
	if !g.enabled() {
		v, err := op(ctx)
		if err != nil {
			return Result{Action: name}, err
		}
		return Result{Action: name, Value: v}, nil
	}

	g.mu.Lock()
	g.pending = &pendingOp{name: name, op: op}
	g.mu.Unlock()
	return Result{Pending: true, Action: name}, nil
}

// Resume verifies code and, on success, runs the parked operation exactly
// once. A rejected code leaves the operation parked so the user can retry.
func (g *Guard) Resume(ctx context.Context, code string) (Result, error) {
	g.mu.Lock()
	p := g.pending
	g.mu.Unlock()
	if p == nil {
		return Result{}, errno.ErrNoPendingAction
	}

	if err := g.verify(ctx, code); err != nil {
		if errno.KindOf(err) == errno.KindServer && !errors.Is(err, errno.ErrTwoFactorRejected) {
			return Result{Pending: true, Action: p.name}, errno.ErrTwoFactorRejected.WithMessage(err.Error())
		}
		return Result{Pending: true, Action: p.name}, err
	}

	g.mu.Lock()
	if g.pending != p {
		// 验证期间被新的操作替换, 旧操作不再执行
		g.mu.Unlock()
		return Result{}, errno.ErrNoPendingAction
	}
	g.pending = nil
	g.mu.Unlock()

	v, err := p.op(ctx)
	if err != nil {
		return Result{Action: p.name}, err
	}
	return Result{Action: p.name, Value: v}, nil
}

// Cancel drops the parked operation, if any.
func (g *Guard) Cancel() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

// Pending returns the name of the parked operation.
func (g *Guard) Pending() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return "", false
	}
	return g.pending.name, true
}
