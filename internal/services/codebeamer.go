package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/DevN0mad/cbremote/internal/models"
)

// CodeBeamerOpts параметры подключения к удаленному API CodeBeamer.
type CodeBeamerOpts struct {
	ServiceURL         string `mapstructure:"service_url" yaml:"service_url" validate:"required,url"`
	Login              string `mapstructure:"login" yaml:"login" validate:"required"`
	Password           string `mapstructure:"password" yaml:"password"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"min=0"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

const defaultTimeout = 30 * time.Second

var (
	// ErrNotFound сущность с указанным именем или идентификатором не найдена.
	ErrNotFound = errors.New("not found")
	// ErrNotConnected вызов выполнен вне открытой сессии.
	ErrNotConnected = errors.New("not connected")
)

// RemoteError ошибка, которую вернул сам сервер CodeBeamer.
type RemoteError struct {
	Method  string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %s (code %d)", e.Method, e.Message, e.Code)
}

// CodeBeamerService клиент удаленного API CodeBeamer.
type CodeBeamerService struct {
	opts   CodeBeamerOpts
	logger *slog.Logger
	client *http.Client
}

// NewCodeBeamerService создает клиент удаленного API.
func NewCodeBeamerService(opts CodeBeamerOpts, logger *slog.Logger) (*CodeBeamerService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(opts.ServiceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid service url %q", opts.ServiceURL)
	}

	timeout := defaultTimeout
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled", "service_url", opts.ServiceURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &CodeBeamerService{
		opts:   opts,
		logger: logger,
		client: &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// ServiceURL возвращает адрес удаленного API.
func (s *CodeBeamerService) ServiceURL() string {
	return s.opts.ServiceURL
}

// Connect выполняет вход и возвращает открытую сессию.
func (s *CodeBeamerService) Connect(ctx context.Context) (*Session, error) {
	var token string
	if err := s.call(ctx, "login", []any{s.opts.Login, s.opts.Password}, &token); err != nil {
		s.logger.Error("Failed to sign in", "login", s.opts.Login, "error", err)
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if token == "" {
		return nil, fmt.Errorf("sign in: empty session token")
	}

	sess := &Session{svc: s, token: token}
	if err := s.call(ctx, "getServerInfo", []any{}, &sess.Info); err != nil {
		s.logger.Warn("Failed to get server info", "error", err)
	}

	s.logger.Debug("Signed in", "login", s.opts.Login, "version", sess.Info.MajorVersion+sess.Info.MinorVersion)
	return sess, nil
}

// WithSession открывает сессию, выполняет fn и закрывает сессию.
func (s *CodeBeamerService) WithSession(ctx context.Context, fn func(*Session) error) error {
	sess, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to sign out", "error", err)
		}
	}()

	return fn(sess)
}

// call выполняет один JSON-RPC вызов.
func (s *CodeBeamerService) call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}

	payload, err := json.Marshal(models.RPCRequest{
		JSONRPC: models.RPCVersion,
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.ServiceURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("remote api %s returned %d: %s", method, resp.StatusCode, bytes.TrimSpace(body))
	}

	var envelope models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}

	s.logger.Debug("Remote call", "method", method, "elapsed", time.Since(started))

	if envelope.Error != nil {
		return &RemoteError{Method: method, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}

	if result == nil || len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
