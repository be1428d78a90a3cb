package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wallet-client/internal/api"
	"wallet-client/internal/model"
)

// tokenBalanceConcurrency 同时查询代币余额的上限
const tokenBalanceConcurrency = 4

// AddToken registers an ERC-20 contract on the selected network and reloads
// the token list.
func (s *Session) AddToken(ctx context.Context, address, name, symbol string, decimals int) ([]model.Token, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	network := s.state.SelectedNetwork
	s.mu.Unlock()

	err = s.backend.AddToken(ctx, api.AddTokenRequest{
		TokenAddress: address,
		Token:        token,
		NetworkName:  network,
		TokenName:    name,
		TokenSymbol:  symbol,
		TokenDecimal: decimals,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("token added", zap.String("symbol", symbol), zap.String("network", network))
	return s.ListTokens(ctx)
}

// ListTokens reloads the token list. Balances already known for a token are
// carried over.
func (s *Session) ListTokens(ctx context.Context) ([]model.Token, error) {
	token, err := s.token()
	if err != nil {
		return nil, err
	}
	tokens, err := s.backend.ListTokens(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	known := make(map[string]string, len(s.state.Tokens))
	for _, t := range s.state.Tokens {
		known[tokenKey(t)] = t.Balance
	}
	for i := range tokens {
		if tokens[i].Balance == "" {
			tokens[i].Balance = known[tokenKey(tokens[i])]
		}
	}
	s.state.Tokens = tokens
	out := append([]model.Token(nil), tokens...)
	s.mu.Unlock()
	return out, nil
}

// TokensForNetwork returns the tokens added on the selected network.
func (s *Session) TokensForNetwork() []model.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Token
	for _, t := range s.state.Tokens {
		if t.Network == s.state.SelectedNetwork {
			out = append(out, t)
		}
	}
	return out
}

// RefreshTokenBalances fetches the balance of every token on the selected
// network concurrently. Each failure shows model.BalanceError for that token
// only; the joined errors are returned.
func (s *Session) RefreshTokenBalances(ctx context.Context) error {
	wc, err := s.currentWallet()
	if err != nil {
		return err
	}
	tokens := s.TokensForNetwork()
	if len(tokens) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(tokenBalanceConcurrency)
	for _, t := range tokens {
		g.Go(func() error {
			balance, err := s.backend.GetTokenBalance(ctx, wc.network, t.Address, wc.address)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				s.log.Warn("token balance failed", zap.String("token", t.Symbol), zap.Error(err))
				balance = model.BalanceError
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			s.setTokenBalance(wc.address, wc.network, t.Address, balance)
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Join(errs...)
}

func (s *Session) setTokenBalance(walletAddress, network, tokenAddress, balance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stillCurrent(walletAddress, network) {
		return
	}
	for i := range s.state.Tokens {
		t := &s.state.Tokens[i]
		if t.Network == network && strings.EqualFold(t.Address, tokenAddress) {
			t.Balance = balance
		}
	}
}

func tokenKey(t model.Token) string {
	return strings.ToLower(t.Address) + "|" + t.Network
}
