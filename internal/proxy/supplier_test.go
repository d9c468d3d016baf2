package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxySupplier_RoundRobin(t *testing.T) {
	p := &proxySupplier{proxies: []string{"http://a:1", "http://b:1", "http://c:1"}}

	want := []string{"http://a:1", "http://b:1", "http://c:1", "http://a:1"}
	for i, w := range want {
		if got := p.Get(); got != w {
			t.Errorf("Get() #%d = %q, want %q", i, got, w)
		}
	}
}

func TestProxySupplier_Empty(t *testing.T) {
	p := NewProxySupplier(context.Background(), nil, "http://unused")
	if got := p.Get(); got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestNewProxySupplier_DropsDeadProxies(t *testing.T) {
	// An HTTP proxy receives the absolute-form request; answering 200 is enough.
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer alive.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	p := NewProxySupplier(context.Background(), []string{deadURL, alive.URL}, "http://backend.invalid/health")

	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}
	if got := p.Get(); got != alive.URL {
		t.Errorf("Get() = %q, want %q", got, alive.URL)
	}
}
