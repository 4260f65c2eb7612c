package core

import (
	"fmt"
	"net/url"
	"os"
	"sync"
)

// ProxyType enumerates supported proxy server schemes.
type ProxyType string

const (
	ProxyHTTP  ProxyType = "http"
	ProxyHTTPS ProxyType = "https"
)

// Environment variables used by NewEnvironmentProxies.
const (
	EnvProxyType     = "TENCENTCLOUD_PROXY_TYPE"
	EnvProxyEndpoint = "TENCENTCLOUD_PROXY_ENDPOINT"
	EnvProxyUsername = "TENCENTCLOUD_PROXY_USERNAME"
	EnvProxyPassword = "TENCENTCLOUD_PROXY_PASSWORD"
)

// ProxyAuth carries basic-auth credentials for a proxy server.
type ProxyAuth struct {
	Username string
	Password string
}

type proxyServer struct {
	kind     ProxyType
	endpoint string
	auth     *ProxyAuth
}

// Proxies is a named set of proxy servers with exactly one active
// entry. The active entry is used for every request issued by clients
// configured with the set. Safe for concurrent use.
type Proxies struct {
	mu      sync.RWMutex
	active  string
	servers map[string]proxyServer
}

// NewProxies returns a proxy set with one named server, made active.
func NewProxies(name string, kind ProxyType, endpoint string, auth *ProxyAuth) (*Proxies, error) {
	p := &Proxies{servers: map[string]proxyServer{}}
	if err := p.Add(name, kind, endpoint, auth); err != nil {
		return nil, err
	}
	if err := p.Use(name); err != nil {
		return nil, err
	}
	return p, nil
}

// NewEnvironmentProxies builds a proxy set from the
// TENCENTCLOUD_PROXY_* environment variables.
func NewEnvironmentProxies() (*Proxies, error) {
	kind, ok := os.LookupEnv(EnvProxyType)
	if !ok {
		return nil, fmt.Errorf("core: missing environment variable %s", EnvProxyType)
	}
	endpoint, ok := os.LookupEnv(EnvProxyEndpoint)
	if !ok {
		return nil, fmt.Errorf("core: missing environment variable %s", EnvProxyEndpoint)
	}

	var auth *ProxyAuth
	if username, ok := os.LookupEnv(EnvProxyUsername); ok {
		auth = &ProxyAuth{
			Username: username,
			Password: os.Getenv(EnvProxyPassword),
		}
	}

	return NewProxies("default", ProxyType(kind), endpoint, auth)
}

// Add registers a new proxy server under a unique name.
func (p *Proxies) Add(name string, kind ProxyType, endpoint string, auth *ProxyAuth) error {
	if name == "" || endpoint == "" {
		return fmt.Errorf("core: proxy name and endpoint required")
	}
	if kind != ProxyHTTP && kind != ProxyHTTPS {
		return fmt.Errorf("core: unsupported proxy type %q", kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.servers[name]; ok {
		return fmt.Errorf("core: proxy server %q: %w", name, ErrExisted)
	}
	p.servers[name] = proxyServer{kind: kind, endpoint: endpoint, auth: auth}
	return nil
}

// Use makes the named proxy server active.
func (p *Proxies) Use(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.servers[name]; !ok {
		return fmt.Errorf("core: no such proxy server %q: %w", name, ErrNotFound)
	}
	p.active = name
	return nil
}

// Remove deletes a named proxy server. The active entry cannot be
// removed.
func (p *Proxies) Remove(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if name == p.active {
		return fmt.Errorf("core: cannot remove active proxy server: %w", ErrOccupied)
	}
	if _, ok := p.servers[name]; !ok {
		return fmt.Errorf("core: no such proxy server %q: %w", name, ErrNotFound)
	}
	delete(p.servers, name)
	return nil
}

// Active returns the name of the active proxy server.
func (p *Proxies) Active() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.active
}

// ProxyURL renders the active server as a URL suitable for
// http.Transport, embedding basic-auth credentials when configured.
func (p *Proxies) ProxyURL() (*url.URL, error) {
	p.mu.RLock()
	server, ok := p.servers[p.active]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("core: no active proxy server: %w", ErrNotFound)
	}

	proxyURL := &url.URL{
		Scheme: string(server.kind),
		Host:   server.endpoint,
	}
	if server.auth != nil {
		proxyURL.User = url.UserPassword(server.auth.Username, server.auth.Password)
	}
	return proxyURL, nil
}
