package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-client/pkg/errno"
	"wallet-client/pkg/monitor"
)

const (
	DefaultTimeout = 15 * time.Second

	// maxBodySize 单个响应体上限, 防止异常后端把客户端内存打满
	maxBodySize = 4 << 20
)

// Client talks to the remote wallet backend. It is stateless: every method is
// one POST and nothing it does changes local state. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
	metrics    *monitor.ClientMetrics
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *monitor.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a Client for baseURL, e.g. https://api.agrotest.online.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope 是所有响应共有的字段
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e envelope) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type callOptions struct {
	// tolerateText accepts a non-JSON 2xx body as a plain acknowledgement.
	tolerateText bool
	// rejected replaces ErrServerRejected for 4xx answers and success:false.
	rejected *errno.Errno
}

type callOption func(*callOptions)

func tolerateText() callOption {
	return func(o *callOptions) { o.tolerateText = true }
}

func rejectAs(e errno.Errno) callOption {
	return func(o *callOptions) { o.rejected = &e }
}

// post sends body as JSON to <base><path> and decodes a successful answer into out
// (nil skips decoding).
func (c *Client) post(ctx context.Context, op, path string, body, out any, opts ...callOption) (err error) {
	var co callOptions
	for _, o := range opts {
		o(&co)
	}

	start := time.Now()
	status := 0
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = errno.KindOf(err).String()
		}
		c.metrics.Observe(op, outcome, time.Since(start))
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return newOpError(op, 0, errno.ErrEncodeBody.WithMessage(err.Error()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return newOpError(op, 0, errno.ErrTransport.WithMessage(err.Error()))
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := c.log.With(zap.String("op", op), zap.String("request_id", requestID))
	log.Debug("wallet backend request", zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("wallet backend unreachable", zap.Error(err))
		return newOpError(op, 0, errno.ErrTransport.WithMessage(err.Error()))
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return newOpError(op, status, errno.ErrTransport.WithMessage(err.Error()))
	}

	rejected := errno.ErrServerRejected
	if co.rejected != nil {
		rejected = *co.rejected
	}

	if status < 200 || status > 299 {
		msg := rejectionMessage(raw, status)
		log.Info("wallet backend rejected request", zap.Int("status", status), zap.String("error", msg))
		if status >= 500 {
			return newOpError(op, status, errno.ErrServerRejected.WithMessage(msg))
		}
		return newOpError(op, status, rejected.WithMessage(msg))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if co.tolerateText {
			log.Debug("wallet backend answered with text", zap.Int("status", status))
			return nil
		}
		log.Warn("wallet backend sent unparseable body", zap.Int("status", status), zap.Error(err))
		return newOpError(op, status, errno.ErrBadResponse)
	}
	if env.Success != nil && !*env.Success {
		msg := env.text()
		log.Info("wallet backend reported failure", zap.String("error", msg))
		return newOpError(op, status, rejected.WithMessage(msg))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return newOpError(op, status, errno.ErrBadResponse.WithMessage(err.Error()))
		}
	}
	log.Debug("wallet backend response", zap.Int("status", status), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// rejectionMessage 优先取 JSON 的 error/message, 其次是文本响应体, 最后是状态码描述
func rejectionMessage(raw []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.text() != "" {
		return env.text()
	}
	if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "{") {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "request failed"
}

// requireToken fails fast when the session token is missing.
func requireToken(op, token string) error {
	if strings.TrimSpace(token) == "" {
		return newOpError(op, 0, errno.ErrAuthRequired)
	}
	return nil
}

// IsStatus reports whether err is a RemoteOperationError with one of codes.
func IsStatus(err error, codes ...int) bool {
	var re *RemoteOperationError
	if !errors.As(err, &re) {
		return false
	}
	for _, code := range codes {
		if re.StatusCode == code {
			return true
		}
	}
	return false
}
