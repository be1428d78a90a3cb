package api

import (
	"context"

	"wallet-client/internal/model"
	"wallet-client/pkg/validator"
)

// AddTokenRequest registers an ERC-20 contract for the session's wallet.
type AddTokenRequest struct {
	TokenAddress string `json:"tokenAddress" validate:"required,evm_address"`
	Token        string `json:"token"`
	NetworkName  string `json:"networkName" validate:"required"`
	TokenName    string `json:"tokenName" validate:"required"`
	TokenSymbol  string `json:"tokenSymbol" validate:"required"`
	TokenDecimal int    `json:"tokenDecimal" validate:"gte=0,lte=36"`
}

func (c *Client) AddToken(ctx context.Context, req AddTokenRequest) error {
	const op = "addToken"
	if err := requireToken(op, req.Token); err != nil {
		return err
	}
	if err := validator.Struct(req); err != nil {
		return wrapValidation(op, err)
	}
	return c.post(ctx, op, "/add-token", req, nil)
}

// ListTokens returns every token the user added, across all networks.
func (c *Client) ListTokens(ctx context.Context, token string) ([]model.Token, error) {
	const op = "listTokens"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	var res struct {
		Tokens []model.Token `json:"tokens"`
	}
	if err := c.post(ctx, op, "/list-token", tokenRequest{Token: token}, &res); err != nil {
		return nil, err
	}
	if res.Tokens == nil {
		return []model.Token{}, nil
	}
	return res.Tokens, nil
}

type tokenBalanceRequest struct {
	NetworkName   string `json:"networkName" validate:"required"`
	TokenAddress  string `json:"tokenAddress" validate:"required,evm_address"`
	WalletAddress string `json:"walletAddress" validate:"required,evm_address"`
}

func (c *Client) GetTokenBalance(ctx context.Context, networkName, tokenAddress, walletAddress string) (string, error) {
	const op = "getTokenBalance"
	req := tokenBalanceRequest{NetworkName: networkName, TokenAddress: tokenAddress, WalletAddress: walletAddress}
	if err := validator.Struct(req); err != nil {
		return "", wrapValidation(op, err)
	}
	var res balanceResponse
	if err := c.post(ctx, op, "/get-token-balance", req, &res); err != nil {
		return "", err
	}
	return model.FlexString(res.Balance), nil
}

// SendTokenRequest transfers an ERC-20 token.
type SendTokenRequest struct {
	FromPrivateKey model.Secret `json:"fromPrivateKey" validate:"required"`
	ToAddress      string       `json:"toAddress" validate:"required,evm_address"`
	TokenAddress   string       `json:"tokenAddress" validate:"required,evm_address"`
	Amount         string       `json:"amount" validate:"required,positive_amount"`
	NetworkName    string       `json:"networkName" validate:"required"`
	Token          string       `json:"token"`
}

// SendERC20Token returns the backend's transaction id. The session token is
// sent as both token and userToken; deployed backends read either one.
func (c *Client) SendERC20Token(ctx context.Context, req SendTokenRequest) (string, error) {
	const op = "sendToken"
	if err := requireToken(op, req.Token); err != nil {
		return "", err
	}
	if err := validator.Struct(req); err != nil {
		return "", wrapValidation(op, err)
	}
	req.Amount = validator.NormalizeAmount(req.Amount)

	body := struct {
		SendTokenRequest
		UserToken string `json:"userToken"`
	}{SendTokenRequest: req, UserToken: req.Token}

	var res sendResponse
	if err := c.post(ctx, op, "/send-token", body, &res); err != nil {
		return "", err
	}
	return res.TransactionID, nil
}
