package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet-client/internal/api"
	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/validator"
)

type sendForm struct {
	ToAddress string `json:"toAddress" validate:"required,evm_address"`
	Amount    string `json:"amount" validate:"required,positive_amount"`
}

type sendTokenForm struct {
	TokenAddress string `json:"tokenAddress" validate:"required,evm_address"`
	ToAddress    string `json:"toAddress" validate:"required,evm_address"`
	Amount       string `json:"amount" validate:"required,positive_amount"`
}

// ListTransactions reloads the history for the selected network and caches
// it. On failure the list is emptied and the error returned.
func (s *Session) ListTransactions(ctx context.Context) ([]model.Transaction, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	network := s.state.SelectedNetwork
	s.mu.Unlock()

	txs, err := s.backend.ListTransactions(ctx, token, network)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	if s.state.SelectedNetwork != network {
		s.mu.Unlock()
		return nil, nil
	}
	if err != nil {
		s.state.Transactions = []model.Transaction{}
		s.mu.Unlock()
		return nil, err
	}
	s.state.Transactions = txs
	s.mu.Unlock()

	if err := s.prefs.SetTransactions(ctx, txs); err != nil {
		s.log.Warn("could not cache transactions", zap.Error(err))
	}
	return append([]model.Transaction(nil), txs...), nil
}

// TransactionsForNetwork filters the loaded history by the selected network.
// Records without a network are left out.
func (s *Session) TransactionsForNetwork() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Transaction
	for _, tx := range s.state.Transactions {
		if tx.Network == s.state.SelectedNetwork {
			out = append(out, tx)
		}
	}
	return out
}

// Refresh reloads balance and transactions concurrently. Refreshing stays
// set until both have finished, whatever their outcome.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.state.Refreshing = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.state.Refreshing = false
		s.mu.Unlock()
	}()

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		record(s.RefreshBalance(ctx))
		return nil
	})
	g.Go(func() error {
		_, err := s.ListTransactions(ctx)
		record(err)
		return nil
	})
	_ = g.Wait()
	return errors.Join(errs...)
}

// SendTransaction sends the native coin. Input is validated up front; with
// 2FA on the transfer is parked until Verify2FA succeeds.
func (s *Session) SendTransaction(ctx context.Context, to, amount string) (Result, error) {
	if err := validator.Struct(sendForm{ToAddress: to, Amount: amount}); err != nil {
		return Result{}, err
	}
	wc, err := s.currentWallet()
	if err != nil {
		return Result{}, err
	}
	if wc.token == "" {
		return Result{}, errno.ErrAuthRequired
	}

	req := api.SendTransactionRequest{
		SenderPrivateKey: wc.privateKey,
		ToAddress:        to,
		Amount:           amount,
		NetworkName:      wc.network,
		Token:            wc.token,
	}
	return s.guard.Do(ctx, "sendTransaction", func(ctx context.Context) (any, error) {
		id, err := s.backend.SendTransaction(ctx, req)
		if err != nil {
			return nil, err
		}
		s.log.Info("transaction sent", zap.String("id", id), zap.String("network", req.NetworkName))
		if err := s.Refresh(ctx); err != nil {
			s.log.Warn("refresh after send failed", zap.Error(err))
		}
		return id, nil
	})
}

// SendToken sends an ERC-20 token on the selected network.
func (s *Session) SendToken(ctx context.Context, tokenAddress, to, amount string) (Result, error) {
	if err := validator.Struct(sendTokenForm{TokenAddress: tokenAddress, ToAddress: to, Amount: amount}); err != nil {
		return Result{}, err
	}
	wc, err := s.currentWallet()
	if err != nil {
		return Result{}, err
	}
	if wc.token == "" {
		return Result{}, errno.ErrAuthRequired
	}

	req := api.SendTokenRequest{
		FromPrivateKey: wc.privateKey,
		ToAddress:      to,
		TokenAddress:   tokenAddress,
		Amount:         amount,
		NetworkName:    wc.network,
		Token:          wc.token,
	}
	return s.guard.Do(ctx, "sendToken", func(ctx context.Context) (any, error) {
		id, err := s.backend.SendERC20Token(ctx, req)
		if err != nil {
			return nil, err
		}
		s.log.Info("token sent", zap.String("id", id), zap.String("token", req.TokenAddress))
		if err := s.RefreshTokenBalances(ctx); err != nil {
			s.log.Warn("token balance refresh after send failed", zap.Error(err))
		}
		return id, nil
	})
}
