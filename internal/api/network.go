package api

import (
	"context"
	"encoding/json"

	"wallet-client/internal/model"
	"wallet-client/pkg/validator"
)

type networkRequest struct {
	NetworkName string `json:"networkName" validate:"required"`
}

// SelectNetwork tells the backend which builtin network the session uses.
func (c *Client) SelectNetwork(ctx context.Context, networkName string) error {
	const op = "selectNetwork"
	req := networkRequest{NetworkName: networkName}
	if err := validator.Struct(req); err != nil {
		return wrapValidation(op, err)
	}
	return c.post(ctx, op, "/select-network", req, nil)
}

type selectCustomNetworkRequest struct {
	NetworkName   string              `json:"networkName"`
	CustomNetwork model.CustomNetwork `json:"customNetwork"`
	Token         string              `json:"token"`
}

// SelectCustomNetwork selects a previously added custom network. It shares
// /select-network with SelectNetwork and carries the full definition.
func (c *Client) SelectCustomNetwork(ctx context.Context, network model.CustomNetwork, token string) error {
	const op = "selectCustomNetwork"
	if err := requireToken(op, token); err != nil {
		return err
	}
	if err := validator.Struct(network); err != nil {
		return wrapValidation(op, err)
	}
	req := selectCustomNetworkRequest{NetworkName: network.NetworkName, CustomNetwork: network, Token: token}
	return c.post(ctx, op, "/select-network", req, nil)
}

type addCustomNetworkRequest struct {
	model.CustomNetwork
	Token string `json:"token"`
}

func (c *Client) AddCustomNetwork(ctx context.Context, network model.CustomNetwork, token string) error {
	const op = "addCustomNetwork"
	if err := requireToken(op, token); err != nil {
		return err
	}
	if err := validator.Struct(network); err != nil {
		return wrapValidation(op, err)
	}
	return c.post(ctx, op, "/add-custom-network", addCustomNetworkRequest{CustomNetwork: network, Token: token}, nil)
}

// ListCustomNetworks is served by /select-custom-network.
func (c *Client) ListCustomNetworks(ctx context.Context, token string) ([]model.CustomNetwork, error) {
	const op = "listCustomNetworks"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	var res struct {
		CustomNetworks []model.CustomNetwork `json:"customNetworks"`
	}
	if err := c.post(ctx, op, "/select-custom-network", tokenRequest{Token: token}, &res); err != nil {
		return nil, err
	}
	if res.CustomNetworks == nil {
		return []model.CustomNetwork{}, nil
	}
	return res.CustomNetworks, nil
}

type balanceRequest struct {
	Address     string `json:"address" validate:"required,evm_address"`
	NetworkName string `json:"networkName" validate:"required"`
}

type balanceResponse struct {
	Balance json.RawMessage `json:"balance"`
}

// GetBalance returns the native coin balance as the backend formats it.
func (c *Client) GetBalance(ctx context.Context, address, networkName string) (string, error) {
	const op = "getBalance"
	req := balanceRequest{Address: address, NetworkName: networkName}
	if err := validator.Struct(req); err != nil {
		return "", wrapValidation(op, err)
	}
	var res balanceResponse
	if err := c.post(ctx, op, "/get-balance", req, &res); err != nil {
		return "", err
	}
	return model.FlexString(res.Balance), nil
}

// GetTransactionFee returns the backend's fee estimate for networkName.
func (c *Client) GetTransactionFee(ctx context.Context, networkName string) (*model.FeeEstimate, error) {
	const op = "getTransactionFee"
	req := networkRequest{NetworkName: networkName}
	if err := validator.Struct(req); err != nil {
		return nil, wrapValidation(op, err)
	}
	var fee model.FeeEstimate
	if err := c.post(ctx, op, "/get-transaction-fee", req, &fee); err != nil {
		return nil, err
	}
	return &fee, nil
}
