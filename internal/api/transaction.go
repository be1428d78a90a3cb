package api

import (
	"context"

	"wallet-client/internal/model"
	"wallet-client/pkg/validator"
)

type listTransactionsRequest struct {
	Token       string `json:"token"`
	NetworkName string `json:"networkName"`
}

// ListTransactions returns the wallet's transaction history. networkName may
// be empty, in which case the backend returns every network.
func (c *Client) ListTransactions(ctx context.Context, token, networkName string) ([]model.Transaction, error) {
	const op = "listTransactions"
	if err := requireToken(op, token); err != nil {
		return nil, err
	}
	var res struct {
		Transactions []model.Transaction `json:"transactions"`
	}
	req := listTransactionsRequest{Token: token, NetworkName: networkName}
	if err := c.post(ctx, op, "/list-transactions", req, &res); err != nil {
		return nil, err
	}
	if res.Transactions == nil {
		return []model.Transaction{}, nil
	}
	return res.Transactions, nil
}

// SendTransactionRequest transfers the network's native coin.
type SendTransactionRequest struct {
	SenderPrivateKey model.Secret `json:"senderPrivateKey" validate:"required"`
	ToAddress        string       `json:"toAddress" validate:"required,evm_address"`
	Amount           string       `json:"amount" validate:"required,positive_amount"`
	NetworkName      string       `json:"networkName" validate:"required"`
	Token            string       `json:"token"`
}

type sendResponse struct {
	TransactionID string `json:"transactionId"`
}

// SendTransaction returns the backend's transaction id.
func (c *Client) SendTransaction(ctx context.Context, req SendTransactionRequest) (string, error) {
	const op = "sendTransaction"
	if err := requireToken(op, req.Token); err != nil {
		return "", err
	}
	if err := validator.Struct(req); err != nil {
		return "", wrapValidation(op, err)
	}
	req.Amount = validator.NormalizeAmount(req.Amount)

	var res sendResponse
	if err := c.post(ctx, op, "/send-transaction", req, &res); err != nil {
		return "", err
	}
	return res.TransactionID, nil
}
