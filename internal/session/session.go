package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"wallet-client/internal/api"
	"wallet-client/internal/model"
	"wallet-client/internal/store"
	"wallet-client/pkg/errno"
)

// Backend is the remote wallet service as the session uses it.
// *api.Client satisfies it.
type Backend interface {
	CreateUser(ctx context.Context, username, password string) (*api.CreateUserResult, error)
	CreateWallet(ctx context.Context, token string) (*model.Wallet, error)
	LoginWallet(ctx context.Context, username, password, mnemonic string) (*api.LoginResult, error)
	ImportWallet(ctx context.Context, username, password, mnemonic string) error
	ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error

	SelectNetwork(ctx context.Context, networkName string) error
	SelectCustomNetwork(ctx context.Context, network model.CustomNetwork, token string) error
	AddCustomNetwork(ctx context.Context, network model.CustomNetwork, token string) error
	ListCustomNetworks(ctx context.Context, token string) ([]model.CustomNetwork, error)
	GetBalance(ctx context.Context, address, networkName string) (string, error)
	GetTransactionFee(ctx context.Context, networkName string) (*model.FeeEstimate, error)

	ListTransactions(ctx context.Context, token, networkName string) ([]model.Transaction, error)
	SendTransaction(ctx context.Context, req api.SendTransactionRequest) (string, error)

	AddToken(ctx context.Context, req api.AddTokenRequest) error
	ListTokens(ctx context.Context, token string) ([]model.Token, error)
	GetTokenBalance(ctx context.Context, networkName, tokenAddress, walletAddress string) (string, error)
	SendERC20Token(ctx context.Context, req api.SendTokenRequest) (string, error)

	Check2FA(ctx context.Context, token string) (bool, error)
	Enable2FA(ctx context.Context, token string) (*model.TwoFactorSetup, error)
	Deploy2FA(ctx context.Context, token, code string) (bool, error)
	Verify2FA(ctx context.Context, token, code string) (bool, error)
	Disable2FA(ctx context.Context, token string) error
}

var _ Backend = (*api.Client)(nil)

// State is the observable session. User is nil while anonymous.
type State struct {
	User             *model.User
	Wallet           *model.Wallet
	SelectedNetwork  string
	Balance          string
	Tokens           []model.Token
	Transactions     []model.Transaction
	CustomNetworks   []model.CustomNetwork
	TwoFactorEnabled bool
	Refreshing       bool
}

func (s State) Authenticated() bool {
	return s.User != nil && s.User.Token != ""
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Wallet != nil {
		w := *s.Wallet
		out.Wallet = &w
	}
	out.Tokens = append([]model.Token(nil), s.Tokens...)
	out.Transactions = append([]model.Transaction(nil), s.Transactions...)
	out.CustomNetworks = append([]model.CustomNetwork(nil), s.CustomNetworks...)
	return out
}

func anonymousState() State {
	return State{SelectedNetwork: model.DefaultNetwork}
}

// Session owns the wallet state of one user. All mutation goes through its
// methods; backend calls run without the lock held and their results are
// applied under it.
type Session struct {
	mu    sync.Mutex
	state State

	backend Backend
	prefs   *store.Preferences
	guard   *Guard
	fees    map[string]string
	log     *zap.Logger
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStaticFees answers TransactionFee locally for the listed networks.
// Keys are matched case-insensitively.
func WithStaticFees(fees map[string]string) Option {
	return func(s *Session) {
		for k, v := range fees {
			s.fees[strings.ToLower(k)] = v
		}
	}
}

func New(backend Backend, prefs *store.Preferences, opts ...Option) *Session {
	s := &Session{
		state:   anonymousState(),
		backend: backend,
		prefs:   prefs,
		fees:    make(map[string]string),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = NewGuard(s.twoFactorOn, s.verifyCode)
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// PendingAction names the operation waiting for Verify2FA.
func (s *Session) PendingAction() (string, bool) {
	return s.guard.Pending()
}

// CancelPending drops the operation waiting for Verify2FA.
func (s *Session) CancelPending() {
	s.guard.Cancel()
}

// Restore re-hydrates the session from the preference store. Remote refreshes
// (2FA flag, tokens, balance) are best effort.
func (s *Session) Restore(ctx context.Context) error {
	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	network, err := s.prefs.SelectedNetwork(ctx)
	keep(err)
	custom, err := s.prefs.CustomNetworks(ctx)
	keep(err)
	token, err := s.prefs.Token(ctx)
	keep(err)
	wallet, err := s.prefs.Wallet(ctx)
	keep(err)
	twoFactor, err := s.prefs.TwoFactorEnabled(ctx)
	keep(err)
	txs, err := s.prefs.Transactions(ctx)
	keep(err)

	if network == "" || !model.IsKnownNetwork(network, custom) {
		if network != "" {
			s.log.Warn("stored network is unknown, falling back", zap.String("network", network))
		}
		network = model.DefaultNetwork
		keep(s.prefs.SetSelectedNetwork(ctx, network))
	}

	s.mu.Lock()
	s.state = anonymousState()
	s.state.SelectedNetwork = network
	s.state.CustomNetworks = custom
	s.state.TwoFactorEnabled = twoFactor
	s.state.Transactions = txs
	if token != "" {
		s.state.User = &model.User{Token: token}
	}
	if wallet != nil {
		s.state.Wallet = wallet
		if s.state.User != nil {
			s.state.User.Address = wallet.Address
		}
	}
	s.mu.Unlock()

	if token != "" {
		if _, err := s.CheckTwoFactor(ctx); err != nil {
			s.log.Warn("could not refresh 2FA status, using cached flag", zap.Error(err))
		}
		if _, err := s.ListTokens(ctx); err != nil {
			s.log.Warn("could not load tokens", zap.Error(err))
		}
	}
	if wallet != nil {
		if err := s.RefreshBalance(ctx); err != nil {
			s.log.Warn("could not load balance", zap.Error(err))
		}
	}
	return errors.Join(errs...)
}

// Logout clears every managed preference in one call and resets to anonymous
// on the default network. The in-memory reset happens even if the store fails.
func (s *Session) Logout(ctx context.Context) error {
	s.guard.Cancel()

	s.mu.Lock()
	s.state = anonymousState()
	s.mu.Unlock()

	if err := s.prefs.Clear(ctx); err != nil {
		s.log.Error("failed to clear preferences", zap.Error(err))
		return err
	}
	s.log.Info("logged out")
	return nil
}

// token returns the session token or ErrAuthRequired.
func (s *Session) token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated() {
		return "", errno.ErrAuthRequired
	}
	return s.state.User.Token, nil
}

// walletContext 当前钱包地址、私钥和所选网络
type walletContext struct {
	token      string
	address    string
	privateKey model.Secret
	network    string
}

func (s *Session) currentWallet() (walletContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Wallet == nil || s.state.Wallet.Address == "" {
		return walletContext{}, errno.ErrNoWallet
	}
	wc := walletContext{
		address:    s.state.Wallet.Address,
		privateKey: s.state.Wallet.PrivateKey,
		network:    s.state.SelectedNetwork,
	}
	if s.state.User != nil {
		wc.token = s.state.User.Token
	}
	return wc, nil
}

// stillCurrent reports whether a result fetched for address/network still
// matches the selection. Callers hold s.mu.
func (s *Session) stillCurrent(address, network string) bool {
	return s.state.Wallet != nil &&
		strings.EqualFold(s.state.Wallet.Address, address) &&
		s.state.SelectedNetwork == network
}
