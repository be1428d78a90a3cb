package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/validator"
)

type signupForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type importForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Mnemonic string `json:"mnemonic" validate:"required,mnemonic"`
}

type changePasswordForm struct {
	Current string `json:"currentPassword" validate:"required"`
	New     string `json:"newPassword" validate:"required"`
	Confirm string `json:"confirmPassword" validate:"required,eqfield=New"`
}

// CreateUser registers the user, stores the session token and then asks the
// backend for a new wallet.
func (s *Session) CreateUser(ctx context.Context, username, password, confirm string) (*model.Wallet, error) {
	if err := validator.Struct(signupForm{Username: username, Password: password, Confirm: confirm}); err != nil {
		return nil, err
	}

	res, err := s.backend.CreateUser(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.switchAccount(ctx, &model.User{Username: username, Token: res.Token})
	if err := s.prefs.SetToken(ctx, res.Token); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("username", username))

	return s.CreateWallet(ctx)
}

// CreateWallet asks the backend for a wallet and persists the snapshot.
func (s *Session) CreateWallet(ctx context.Context) (*model.Wallet, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	w, err := s.backend.CreateWallet(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.prefs.SetWallet(ctx, *w); err != nil {
		return nil, err
	}

	s.log.Info("wallet created", zap.Any("wallet", *w))
	s.adoptWallet(ctx, *w)

	out := *w
	return &out, nil
}

// switchAccount cancels any operation parked for 2FA and drops everything
// that belonged to the previous account. Only the selected network survives.
func (s *Session) switchAccount(ctx context.Context, user *model.User) {
	s.guard.Cancel()

	s.mu.Lock()
	network := s.state.SelectedNetwork
	s.state = anonymousState()
	s.state.SelectedNetwork = network
	s.state.User = user
	s.mu.Unlock()

	// 本地缓存同样属于上一个账户
	if err := s.prefs.ClearAccount(ctx); err != nil {
		s.log.Warn("could not clear previous account preferences", zap.Error(err))
	}
}

// adoptWallet makes w the active wallet, shows the loading placeholder and
// fetches tokens and balances for the selected network.
func (s *Session) adoptWallet(ctx context.Context, w model.Wallet) {
	s.mu.Lock()
	s.state.Wallet = &w
	if s.state.User != nil {
		s.state.User.Address = w.Address
	}
	s.state.Balance = model.BalanceLoading
	s.mu.Unlock()

	if _, err := s.ListTokens(ctx); err != nil {
		s.log.Warn("could not load tokens", zap.Error(err))
	}
	s.mu.Lock()
	for i := range s.state.Tokens {
		if s.state.Tokens[i].Network == s.state.SelectedNetwork {
			s.state.Tokens[i].Balance = model.BalanceLoading
		}
	}
	s.mu.Unlock()

	_ = s.refetchBalances(ctx)
}

// ConfirmMnemonic checks that the user wrote the phrase down correctly.
func (s *Session) ConfirmMnemonic(input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Wallet == nil || s.state.Wallet.Mnemonic.IsZero() {
		return errno.ErrNoWallet
	}
	if strings.TrimSpace(input) != s.state.Wallet.Mnemonic.Reveal() {
		return errno.ErrMnemonicMismatch
	}
	return nil
}

// Login authenticates and stores wallet and token. The returned flag is true
// when the account has 2FA on and VerifyLogin should be called next.
func (s *Session) Login(ctx context.Context, username, password, mnemonic string) (bool, error) {
	res, err := s.backend.LoginWallet(ctx, username, password, mnemonic)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	cached := s.state.User != nil && s.state.User.Username == username && s.state.TwoFactorEnabled
	s.mu.Unlock()

	s.switchAccount(ctx, &model.User{Username: username, Token: res.Token})
	if err := s.prefs.SetWallet(ctx, res.Wallet); err != nil {
		return false, err
	}
	if err := s.prefs.SetToken(ctx, res.Token); err != nil {
		return false, err
	}
	s.log.Info("logged in", zap.String("username", username), zap.String("address", res.Wallet.Address))

	enabled, err := s.CheckTwoFactor(ctx)
	if err != nil {
		// 只有同一账户重新登录时才沿用之前的 2FA 状态
		s.log.Warn("could not refresh 2FA status, using cached flag", zap.Error(err), zap.Bool("cached", cached))
		enabled = cached
		s.setTwoFactor(ctx, enabled)
	}
	s.adoptWallet(ctx, res.Wallet)
	return enabled, nil
}

// Import registers an existing mnemonic and then logs in with it, since the
// import endpoint returns no session.
func (s *Session) Import(ctx context.Context, username, password, confirm, mnemonic string) (bool, error) {
	mnemonic = validator.NormalizeMnemonic(mnemonic)
	form := importForm{Username: username, Password: password, Confirm: confirm, Mnemonic: mnemonic}
	if err := validator.Struct(form); err != nil {
		return false, err
	}
	if err := s.backend.ImportWallet(ctx, username, password, mnemonic); err != nil {
		return false, err
	}
	s.log.Info("wallet imported", zap.String("username", username))
	return s.Login(ctx, username, password, mnemonic)
}

func (s *Session) ChangePassword(ctx context.Context, current, newPassword, confirm string) error {
	if err := validator.Struct(changePasswordForm{Current: current, New: newPassword, Confirm: confirm}); err != nil {
		return err
	}
	token, err := s.token()
	if err != nil {
		return err
	}
	return s.backend.ChangePassword(ctx, token, current, newPassword)
}
