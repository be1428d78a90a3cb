package api

import (
	"context"

	"wallet-client/internal/model"
	"wallet-client/pkg/errno"
	"wallet-client/pkg/validator"
)

type twoFactorCodeRequest struct {
	Token          string `json:"token"`
	TwoFactorToken string `json:"twoFactorToken" validate:"required"`
}

// Check2FA reports whether two-factor authentication is on for the account.
func (c *Client) Check2FA(ctx context.Context, token string) (bool, error) {
	const op = "check2FA"
	if err := requireToken(op, token); err != nil {
		return false, err
	}
	var res struct {
		TwoFactorEnabled bool `json:"twoFactorEnabled"`
	}
	if err := c.post(ctx, op, "/check-2fa", tokenRequest{Token: token}, &res); err != nil {
		return false, err
	}
	return res.TwoFactorEnabled, nil
}

// Enable2FA starts enrolment. The returned secret is shown once to the user
// and must not be stored.
func (c *Client) Enable2FA(ctx context.Context, token string) (*model.TwoFactorSetup, error) {
	const op = "enable2FA"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	var setup model.TwoFactorSetup
	if err := c.post(ctx, op, "/enable-2fa", tokenRequest{Token: token}, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// Deploy2FA confirms enrolment with the first code from the authenticator.
// A rejected code is reported as errno.ErrTwoFactorRejected.
func (c *Client) Deploy2FA(ctx context.Context, token, code string) (bool, error) {
	return c.submitCode(ctx, "deploy2FA", "/deploy-2fa", token, code)
}

// Verify2FA checks a code against the enrolled secret.
// A rejected code is reported as errno.ErrTwoFactorRejected.
func (c *Client) Verify2FA(ctx context.Context, token, code string) (bool, error) {
	return c.submitCode(ctx, "verify2FA", "/verify-2fa", token, code)
}

func (c *Client) submitCode(ctx context.Context, op, path, token, code string) (bool, error) {
	if err := requireToken(op, token); err != nil {
		return false, err
	}
	req := twoFactorCodeRequest{Token: token, TwoFactorToken: code}
	if err := validator.Struct(req); err != nil {
		return false, wrapValidation(op, err)
	}
	if err := c.post(ctx, op, path, req, nil, rejectAs(errno.ErrTwoFactorRejected)); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Client) Disable2FA(ctx context.Context, token string) error {
	const op = "disable2FA"
	if err := requireToken(op, token); err != nil {
		return err
	}
	return c.post(ctx, op, "/disable-2fa", tokenRequest{Token: token}, nil)
}
