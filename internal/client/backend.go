package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"storefront/admin/internal/config"
	"storefront/admin/internal/domain"
	"storefront/admin/internal/proxy"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// BackendClient talks to the storefront REST backend. Every call unwraps the
// {success, data, message} envelope and decodes data into out when out is not nil.
type BackendClient interface {
	Get(ctx context.Context, path string, out any) error
	Delete(ctx context.Context, path string) error
	Patch(ctx context.Context, path string, body, out any) error
	Close() error
}

type backendClient struct {
	rl            ratelimit.Limiter
	baseURL       string
	timeout       time.Duration
	httpClient    *resty.Client
	proxySupplier proxy.ProxySupplier
	proxyMutex    sync.Mutex

	// Circuit breaker for backend overload (429/503)
	circuitBreakerMutex sync.RWMutex
	openUntil           time.Time
	circuitBreakerDelay time.Duration
}

func NewBackendClient(cfg config.BackendConfig, proxySupplier proxy.ProxySupplier) BackendClient {
	client := resty.New().
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storeadmin/1.0")

	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	delay := cfg.CircuitBreakerDuration()
	if delay <= 0 {
		delay = time.Minute
	}

	return &backendClient{
		rl:                  rl,
		baseURL:             cfg.BaseURL,
		timeout:             cfg.TimeoutDuration(),
		httpClient:          client,
		proxySupplier:       proxySupplier,
		circuitBreakerDelay: delay,
	}
}

func (c *backendClient) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *backendClient) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *backendClient) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *backendClient) Close() error {
	return c.httpClient.Close()
}

func (c *backendClient) do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path

	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return &domain.TransportError{
			Op:  method,
			URL: url,
			Err: fmt.Errorf("circuit breaker is open - requests disabled for %v more", remaining.Round(time.Second)),
		}
	}

	c.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(reqCtx, method, url, body)
	resent := false
	if err != nil && reqCtx.Err() == nil && c.rotateProxy() {
		log.Infof("🔄 Retrying %s %s with new proxy...", method, path)
		resent = true
		resp, err = c.send(reqCtx, method, url, body)
	}

	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = fmt.Errorf("request cancelled: %w", ctx.Err())
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			err = domain.ErrTimeout
		}
		return &domain.TransportError{Op: method, URL: url, Err: err}
	}

	status := resp.StatusCode()

	// The first attempt may have reached the backend before the connection failed
	if resent && method == http.MethodDelete && status == http.StatusNotFound {
		log.WithField("path", path).Infof("✅ %s was already deleted by the failed attempt", path)
		return nil
	}

	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		c.triggerCircuitBreaker()
	}

	var envelope domain.Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.Bytes(), &envelope); err != nil {
		if resp.IsError() {
			return &domain.APIError{Status: status, Message: fmt.Sprintf("HTTP error: %s", resp.Status())}
		}
		return &domain.TransportError{Op: method, URL: url, Err: fmt.Errorf("failed to decode response envelope: %w", err)}
	}

	if err := envelope.Check(status); err != nil {
		log.WithFields(log.Fields{"method": method, "path": path, "status": status}).
			Debugf("Backend reported failure: %v", err)
		return err
	}

	if resp.IsError() {
		return &domain.APIError{Status: status, Message: fmt.Sprintf("HTTP error: %s", resp.Status())}
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &domain.TransportError{Op: method, URL: url, Err: fmt.Errorf("failed to decode response data: %w", err)}
		}
	}

	return nil
}

func (c *backendClient) send(ctx context.Context, method, url string, body any) (*resty.Response, error) {
	req := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())

	// A delete that succeeded before its response was lost comes back as 404 on retry
	if method == http.MethodDelete {
		req.SetRetryCount(0)
	}

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	log.Debugf("➡️ %s %s", method, url)
	return req.Execute(method, url)
}

// rotateProxy switches to the next proxy when more than one is available
func (c *backendClient) rotateProxy() bool {
	if c.proxySupplier == nil || c.proxySupplier.Len() < 2 {
		return false
	}

	c.proxyMutex.Lock()
	defer c.proxyMutex.Unlock()

	newProxy := c.proxySupplier.Get()
	if newProxy == "" {
		return false
	}
	log.Infof("🔄 Switching to new proxy: %s", newProxy)
	c.httpClient.SetProxy(newProxy)
	return true
}

func (c *backendClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.openUntil)
	wasTriggered := !c.openUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.openUntil.IsZero() && now.After(c.openUntil) {
			c.openUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *backendClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.openUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Backend is overloaded. Circuit breaker open until %v (%v)",
		c.openUntil.Format("15:04:05"), c.circuitBreakerDelay)
}

func (c *backendClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.openUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
