package devserver

import (
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wallet-client/pkg/monitor"
)

// fault 是注入到某个路径上的固定响应
type fault struct {
	status      int
	contentType string
	body        string
}

// Server bundles the fake backend's state, router and test hooks.
type Server struct {
	State  *State
	Engine *gin.Engine

	mu     sync.Mutex
	faults map[string]fault
	calls  map[string]int
}

// NewServer builds the gin engine serving every wallet endpoint. reg may be nil.
func NewServer(opts Options, reg *prometheus.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		State:  NewState(opts),
		faults: make(map[string]fault),
		calls:  make(map[string]int),
	}
	h := NewHandler(s.State)

	r := gin.New()
	r.Use(gin.Recovery())
	if reg != nil {
		r.Use(monitor.NewServerMetrics(reg).Middleware())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	r.GET("/health", HealthCheck)

	api := r.Group("/", s.intercept)
	{
		api.POST("/create-user", h.CreateUser)
		api.POST("/create-wallet", h.CreateWallet)
		api.POST("/login-wallet", h.LoginWallet)
		api.POST("/import-wallet", h.ImportWallet)
		api.POST("/change-password", h.ChangePassword)

		api.POST("/select-network", h.SelectNetwork)
		api.POST("/add-custom-network", h.AddCustomNetwork)
		api.POST("/select-custom-network", h.ListCustomNetworks)
		api.POST("/get-balance", h.GetBalance)
		api.POST("/get-transaction-fee", h.GetTransactionFee)

		api.POST("/list-transactions", h.ListTransactions)
		api.POST("/send-transaction", h.SendTransaction)

		api.POST("/add-token", h.AddToken)
		api.POST("/list-token", h.ListTokens)
		api.POST("/get-token-balance", h.GetTokenBalance)
		api.POST("/send-token", h.SendToken)

		api.POST("/check-2fa", h.Check2FA)
		api.POST("/enable-2fa", h.Enable2FA)
		api.POST("/deploy-2fa", h.Deploy2FA)
		api.POST("/verify-2fa", h.Verify2FA)
		api.POST("/disable-2fa", h.Disable2FA)
	}

	s.Engine = r
	return s
}

// intercept counts calls and serves injected faults.
func (s *Server) intercept(c *gin.Context) {
	path := c.Request.URL.Path

	s.mu.Lock()
	s.calls[path]++
	f, ok := s.faults[path]
	s.mu.Unlock()

	if ok {
		c.Data(f.status, f.contentType, []byte(f.body))
		c.Abort()
		return
	}
	c.Next()
}

// Inject makes every request to path answer with status and a raw body until
// ClearFaults is called.
func (s *Server) Inject(path string, status int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[path] = fault{status: status, contentType: contentType, body: body}
}

// InjectJSON is Inject with an application/json body.
func (s *Server) InjectJSON(path string, status int, body string) {
	s.Inject(path, status, "application/json", body)
}

func (s *Server) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]fault)
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}
