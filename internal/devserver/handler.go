package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"wallet-client/internal/model"
	"wallet-client/pkg/validator"
)

type Handler struct {
	state *State
}

func NewHandler(state *State) *Handler {
	return &Handler{state: state}
}

// bind 解析请求体, 失败时直接写 400
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Fail(c, http.StatusBadRequest, validator.GetErrorMsg(err))
		return false
	}
	return true
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Mnemonic string `json:"mnemonic"`
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	token, err := h.state.CreateUser(req.Username, req.Password)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"token": token})
}

func (h *Handler) CreateWallet(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	w, err := h.state.CreateWallet(req.Token)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) LoginWallet(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	w, token, err := h.state.Login(req.Username, req.Password, req.Mnemonic)
	if err != nil {
		Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":    w.Address,
		"mnemonic":   w.Mnemonic,
		"privateKey": w.PrivateKey,
		"token":      token,
	})
}

func (h *Handler) ImportWallet(c *gin.Context) {
	var req credentialsRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.Import(req.Username, req.Password, req.Mnemonic); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

type changePasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// ChangePassword answers in plain text, as the deployed backend does.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.ChangePassword(req.Token, req.CurrentPassword, req.NewPassword); err != nil {
		Error(c, err)
		return
	}
	c.String(http.StatusOK, "Password changed successfully")
}

type selectNetworkRequest struct {
	NetworkName   string               `json:"networkName" binding:"required"`
	CustomNetwork *model.CustomNetwork `json:"customNetwork"`
	Token         string               `json:"token"`
}

func (h *Handler) SelectNetwork(c *gin.Context) {
	var req selectNetworkRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.SelectNetwork(req.Token, req.NetworkName); err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"networkName": req.NetworkName})
}

type addCustomNetworkRequest struct {
	model.CustomNetwork
	Token string `json:"token" binding:"required"`
}

func (h *Handler) AddCustomNetwork(c *gin.Context) {
	var req addCustomNetworkRequest
	if !bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.NetworkName) == "" {
		Fail(c, http.StatusBadRequest, "networkName cannot be empty")
		return
	}
	if err := h.state.AddCustomNetwork(req.Token, req.CustomNetwork); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

func (h *Handler) ListCustomNetworks(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	networks, err := h.state.CustomNetworks(req.Token)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"customNetworks": networks})
}

type balanceRequest struct {
	Address     string `json:"address" binding:"required"`
	NetworkName string `json:"networkName" binding:"required"`
}

func (h *Handler) GetBalance(c *gin.Context) {
	var req balanceRequest
	if !bind(c, &req) {
		return
	}
	OK(c, gin.H{"balance": h.state.Balance(req.Address, req.NetworkName).String()})
}

type listTransactionsRequest struct {
	Token       string `json:"token" binding:"required"`
	NetworkName string `json:"networkName"`
}

func (h *Handler) ListTransactions(c *gin.Context) {
	var req listTransactionsRequest
	if !bind(c, &req) {
		return
	}
	txs, err := h.state.Transactions(req.Token, req.NetworkName)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"transactions": txs})
}

type sendTransactionRequest struct {
	SenderPrivateKey string `json:"senderPrivateKey" binding:"required"`
	ToAddress        string `json:"toAddress" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	NetworkName      string `json:"networkName" binding:"required"`
	Token            string `json:"token" binding:"required"`
}

func (h *Handler) SendTransaction(c *gin.Context) {
	var req sendTransactionRequest
	if !bind(c, &req) {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}
	id, err := h.state.SendNative(req.Token, req.SenderPrivateKey, req.ToAddress, req.NetworkName, amount)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"transactionId": id})
}

type addTokenRequest struct {
	TokenAddress string `json:"tokenAddress" binding:"required"`
	Token        string `json:"token" binding:"required"`
	NetworkName  string `json:"networkName" binding:"required"`
	TokenName    string `json:"tokenName"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal int    `json:"tokenDecimal"`
}

func (h *Handler) AddToken(c *gin.Context) {
	var req addTokenRequest
	if !bind(c, &req) {
		return
	}
	t := model.Token{
		Address:  req.TokenAddress,
		Network:  req.NetworkName,
		Name:     req.TokenName,
		Symbol:   req.TokenSymbol,
		Decimals: req.TokenDecimal,
	}
	if err := h.state.AddToken(req.Token, t); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

func (h *Handler) ListTokens(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	tokens, err := h.state.Tokens(req.Token)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"tokens": tokens})
}

type tokenBalanceRequest struct {
	NetworkName   string `json:"networkName" binding:"required"`
	TokenAddress  string `json:"tokenAddress" binding:"required"`
	WalletAddress string `json:"walletAddress" binding:"required"`
}

func (h *Handler) GetTokenBalance(c *gin.Context) {
	var req tokenBalanceRequest
	if !bind(c, &req) {
		return
	}
	OK(c, gin.H{"balance": h.state.TokenBalance(req.NetworkName, req.TokenAddress, req.WalletAddress).String()})
}

type sendTokenRequest struct {
	FromPrivateKey string `json:"fromPrivateKey" binding:"required"`
	ToAddress      string `json:"toAddress" binding:"required"`
	TokenAddress   string `json:"tokenAddress" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	NetworkName    string `json:"networkName" binding:"required"`
	Token          string `json:"token"`
	UserToken      string `json:"userToken"`
}

func (h *Handler) SendToken(c *gin.Context) {
	var req sendTokenRequest
	if !bind(c, &req) {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}
	token := req.UserToken
	if token == "" {
		token = req.Token
	}
	id, err := h.state.SendToken(token, req.FromPrivateKey, req.TokenAddress, req.ToAddress, req.NetworkName, amount)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"transactionId": id})
}

type feeRequest struct {
	NetworkName string `json:"networkName" binding:"required"`
}

func (h *Handler) GetTransactionFee(c *gin.Context) {
	var req feeRequest
	if !bind(c, &req) {
		return
	}
	OK(c, gin.H{"gasPrice": h.state.GasPrice(), "networkName": req.NetworkName})
}

func (h *Handler) Check2FA(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	enabled, err := h.state.TwoFactorEnabled(req.Token)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"twoFactorEnabled": enabled})
}

func (h *Handler) Enable2FA(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	setup, err := h.state.EnableTwoFactor(req.Token)
	if err != nil {
		Error(c, err)
		return
	}
	OK(c, gin.H{"qrCodeImageUrl": setup.QRCodeImageURL, "secret": setup.Secret})
}

type codeRequest struct {
	Token          string `json:"token" binding:"required"`
	TwoFactorToken string `json:"twoFactorToken" binding:"required"`
}

func (h *Handler) Deploy2FA(c *gin.Context) {
	var req codeRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.DeployTwoFactor(req.Token, req.TwoFactorToken); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

func (h *Handler) Verify2FA(c *gin.Context) {
	var req codeRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.VerifyTwoFactor(req.Token, req.TwoFactorToken); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

func (h *Handler) Disable2FA(c *gin.Context) {
	var req tokenRequest
	if !bind(c, &req) {
		return
	}
	if err := h.state.DisableTwoFactor(req.Token); err != nil {
		Error(c, err)
		return
	}
	OK(c, nil)
}

// HealthCheck 供探活使用
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "UP",
		"service": "mock-wallet-backend",
	})
}

func parseAmount(c *gin.Context, s string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(validator.NormalizeAmount(s))
	if err != nil || !amount.IsPositive() {
		Fail(c, http.StatusBadRequest, "amount must be a positive number")
		return decimal.Zero, false
	}
	return amount, true
}
