package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
)

// SelectBuiltinNetwork switches to one of model.BuiltinNetworks.
func (s *Session) SelectBuiltinNetwork(ctx context.Context, name string) error {
	if !model.IsBuiltinNetwork(name) {
		return errno.ErrUnknownNetwork.WithMessage("Unknown network: " + name)
	}
	if err := s.backend.SelectNetwork(ctx, name); err != nil {
		return err
	}
	return s.applyNetwork(ctx, name)
}

// SelectCustomNetwork switches to a user defined network.
func (s *Session) SelectCustomNetwork(ctx context.Context, network model.CustomNetwork) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if err := s.backend.SelectCustomNetwork(ctx, network, token); err != nil {
		return err
	}

	s.mu.Lock()
	if !model.IsKnownNetwork(network.NetworkName, s.state.CustomNetworks) {
		s.state.CustomNetworks = append(s.state.CustomNetworks, network)
	}
	custom := append([]model.CustomNetwork(nil), s.state.CustomNetworks...)
	s.mu.Unlock()
	if err := s.prefs.SetCustomNetworks(ctx, custom); err != nil {
		return err
	}
	return s.applyNetwork(ctx, network.NetworkName)
}

// applyNetwork 持久化所选网络, 并重新拉取余额和代币余额
func (s *Session) applyNetwork(ctx context.Context, name string) error {
	if err := s.prefs.SetSelectedNetwork(ctx, name); err != nil {
		return err
	}

	s.mu.Lock()
	s.state.SelectedNetwork = name
	if s.state.Wallet != nil {
		s.state.Balance = model.BalanceLoading
	}
	for i := range s.state.Tokens {
		if s.state.Tokens[i].Network == name {
			s.state.Tokens[i].Balance = model.BalanceLoading
		}
	}
	hasWallet := s.state.Wallet != nil
	s.mu.Unlock()
	s.log.Info("network selected", zap.String("network", name))

	if !hasWallet {
		return nil
	}
	return s.refetchBalances(ctx)
}

// refetchBalances 并发拉取原生币余额和代币余额, 失败只记日志
func (s *Session) refetchBalances(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		if err := s.RefreshBalance(ctx); err != nil {
			s.log.Warn("balance refresh failed", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		if err := s.RefreshTokenBalances(ctx); err != nil {
			s.log.Warn("token balance refresh failed", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

// AddCustomNetwork registers a network with the backend and reloads the list.
func (s *Session) AddCustomNetwork(ctx context.Context, network model.CustomNetwork) error {
	token, err := s.token()
	if err != nil {
		return err
	}
	if err := s.backend.AddCustomNetwork(ctx, network, token); err != nil {
		return err
	}

	if _, err := s.ListCustomNetworks(ctx); err != nil {
		s.log.Warn("could not reload custom networks, keeping local copy", zap.Error(err))
		s.mu.Lock()
		if !model.IsKnownNetwork(network.NetworkName, s.state.CustomNetworks) {
			s.state.CustomNetworks = append(s.state.CustomNetworks, network)
		}
		custom := append([]model.CustomNetwork(nil), s.state.CustomNetworks...)
		s.mu.Unlock()
		return s.prefs.SetCustomNetworks(ctx, custom)
	}
	return nil
}

// ListCustomNetworks fetches the user's networks. On failure the cached list
// is returned together with the error.
func (s *Session) ListCustomNetworks(ctx context.Context) ([]model.CustomNetwork, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	networks, err := s.backend.ListCustomNetworks(ctx, token)
	if err != nil {
		s.mu.Lock()
		cached := append([]model.CustomNetwork(nil), s.state.CustomNetworks...)
		s.mu.Unlock()
		return cached, err
	}

	s.mu.Lock()
	s.state.CustomNetworks = networks
	s.mu.Unlock()
	if err := s.prefs.SetCustomNetworks(ctx, networks); err != nil {
		s.log.Warn("could not cache custom networks", zap.Error(err))
	}
	return append([]model.CustomNetwork(nil), networks...), nil
}

// RefreshBalance fetches the native balance of the selected network. A
// failure shows model.BalanceError; a result for a selection that changed
// in the meantime is dropped.
func (s *Session) RefreshBalance(ctx context.Context) error {
	wc, err := s.currentWallet()
	if err != nil {
		return err
	}

	balance, err := s.backend.GetBalance(ctx, wc.address, wc.network)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stillCurrent(wc.address, wc.network) {
		s.log.Debug("dropping stale balance", zap.String("network", wc.network))
		return nil
	}
	if err != nil {
		s.state.Balance = model.BalanceError
		return err
	}
	s.state.Balance = balance
	return nil
}

// TransactionFee answers from the static fee table when the selected network
// is listed there, otherwise asks the backend.
func (s *Session) TransactionFee(ctx context.Context) (*model.FeeEstimate, error) {
	s.mu.Lock()
	network := s.state.SelectedNetwork
	s.mu.Unlock()

	if price, ok := s.fees[strings.ToLower(network)]; ok {
		return &model.FeeEstimate{GasPrice: price, Extra: map[string]json.RawMessage{}}, nil
	}
	return s.backend.GetTransactionFee(ctx, network)
}

// MaxSendable is the balance minus one gas price, for the "send max" shortcut.
func (s *Session) MaxSendable(ctx context.Context) (string, error) {
	if _, err := s.currentWallet(); err != nil {
		return "", err
	}

	s.mu.Lock()
	current := s.state.Balance
	s.mu.Unlock()

	balance, err := decimal.NewFromString(current)
	if err != nil {
		if err := s.RefreshBalance(ctx); err != nil {
			return "", err
		}
		s.mu.Lock()
		current = s.state.Balance
		s.mu.Unlock()
		if balance, err = decimal.NewFromString(current); err != nil {
			return "", errno.ErrInvalidAmount.WithMessage("balance is not available")
		}
	}

	fee, err := s.TransactionFee(ctx)
	if err != nil {
		return "", err
	}
	gas, err := decimal.NewFromString(strings.TrimSpace(fee.GasPrice))
	if err != nil {
		return "", errors.Join(errno.ErrBadResponse.WithMessage("gas price is not a number"), err)
	}

	sendable := balance.Sub(gas)
	if sendable.IsNegative() {
		return "", errno.ErrInsufficientFunds
	}
	return sendable.String(), nil
}
