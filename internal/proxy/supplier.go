package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxParallelChecks = 16

// ProxySupplier hands out outbound HTTP proxies in round-robin order
type ProxySupplier interface {
	Get() string
	Len() int
}

type proxySupplier struct {
	mu      sync.Mutex
	proxies []string
	next    int
}

// NewProxySupplier keeps only the proxies through which healthURL answers.
// Order of the configured list is preserved.
func NewProxySupplier(ctx context.Context, proxies []string, healthURL string) ProxySupplier {
	if len(proxies) == 0 {
		return &proxySupplier{}
	}

	log.Infof("🔄 Checking %d proxies against %s...", len(proxies), healthURL)

	working := make([]bool, len(proxies))

	g := new(errgroup.Group)
	g.SetLimit(maxParallelChecks)
	for i, candidate := range proxies {
		g.Go(func() error {
			working[i] = isProxyValid(ctx, candidate, healthURL)
			if working[i] {
				log.Debugf("✅ Proxy %s is working", candidate)
			} else {
				log.Warnf("❌ Proxy %s is not working, skipping", candidate)
			}
			return nil
		})
	}
	_ = g.Wait()

	valid := make([]string, 0, len(proxies))
	for i, ok := range working {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ ProxySupplier initialized with %d working proxies out of %d", len(valid), len(proxies))

	return &proxySupplier{proxies: valid}
}

// Get returns the next proxy URL, or an empty string when there are none
func (p *proxySupplier) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}
	proxyURL := p.proxies[p.next]
	p.next = (p.next + 1) % len(p.proxies)
	return proxyURL
}

func (p *proxySupplier) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

func isProxyValid(ctx context.Context, proxyURL, healthURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(healthURL)
	if err != nil {
		log.Debugf("Proxy check failed for %s: %v", proxyURL, err)
		return false
	}

	if resp.IsError() {
		log.Debugf("Proxy check failed for %s with status: %s", proxyURL, resp.Status())
		return false
	}

	return true
}
