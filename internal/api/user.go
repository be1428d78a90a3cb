package api

import (
	"context"
	"net/http"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/validator"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type walletCredentialsRequest struct {
	Username string       `json:"username" validate:"required"`
	Password string       `json:"password" validate:"required"`
	Mnemonic model.Secret `json:"mnemonic" validate:"required,mnemonic"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type CreateUserResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

// CreateUser registers a user and returns its session token.
func (c *Client) CreateUser(ctx context.Context, username, password string) (*CreateUserResult, error) {
	const op = "createUser"
	req := credentialsRequest{Username: username, Password: password}
	if err := validator.Struct(req); err != nil {
		return nil, wrapValidation(op, err)
	}

	var res CreateUserResult
	if err := c.post(ctx, op, "/create-user", req, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, newOpError(op, http.StatusOK, errno.ErrBadResponse.WithMessage("create-user response carries no token"))
	}
	res.Success = true
	return &res, nil
}

// CreateWallet asks the backend to generate a wallet for the session.
func (c *Client) CreateWallet(ctx context.Context, token string) (*model.Wallet, error) {
	const op = "createWallet"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}

	var w model.Wallet
	if err := c.post(ctx, op, "/create-wallet", tokenRequest{Token: token}, &w); err != nil {
		return nil, err
	}
	if w.Address == "" {
		return nil, newOpError(op, http.StatusOK, errno.ErrBadResponse.WithMessage("create-wallet response carries no address"))
	}
	return &w, nil
}

type LoginResult struct {
	Wallet model.Wallet
	Token  string
}

// LoginWallet authenticates with username, password and mnemonic. A 401 or 403
// is reported as errno.ErrInvalidCredentials.
func (c *Client) LoginWallet(ctx context.Context, username, password, mnemonic string) (*LoginResult, error) {
	const op = "loginWallet"
	req := walletCredentialsRequest{
		Username: username,
		Password: password,
		Mnemonic: model.Secret(validator.NormalizeMnemonic(mnemonic)),
	}
	if err := validator.Struct(req); err != nil {
		return nil, wrapValidation(op, err)
	}

	// 登录接口直接返回钱包字段 + token
	var res struct {
		model.Wallet
		Token string `json:"token"`
	}
	err := c.post(ctx, op, "/login-wallet", req, &res)
	if err != nil {
		if re, ok := AsRemoteError(err); ok && IsStatus(err, http.StatusUnauthorized, http.StatusForbidden) {
			return nil, newOpError(op, re.StatusCode, errno.ErrInvalidCredentials.WithMessage(re.Message))
		}
		return nil, err
	}
	if res.Token == "" {
		return nil, newOpError(op, http.StatusOK, errno.ErrInvalidCredentials)
	}
	return &LoginResult{Wallet: res.Wallet, Token: res.Token}, nil
}

// ImportWallet registers an existing mnemonic under a new account.
func (c *Client) ImportWallet(ctx context.Context, username, password, mnemonic string) error {
	const op = "importWallet"
	req := walletCredentialsRequest{
		Username: username,
		Password: password,
		Mnemonic: model.Secret(validator.NormalizeMnemonic(mnemonic)),
	}
	if err := validator.Struct(req); err != nil {
		return wrapValidation(op, err)
	}
	return c.post(ctx, op, "/import-wallet", req, nil)
}

type changePasswordRequest struct {
	Token           string `json:"token"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// ChangePassword tolerates a plain text success body.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	const op = "changePassword"
	if err := requireToken(op, token); err != nil {
		return err
	}
	req := changePasswordRequest{Token: token, CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := validator.Struct(req); err != nil {
		return wrapValidation(op, err)
	}
	return c.post(ctx, op, "/change-password", req, nil, tolerateText())
}
