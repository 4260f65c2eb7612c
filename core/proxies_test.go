package core_test

import (
	"testing"

	"github.com/devmiek/tencent-cloud-sdk-go/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxies(t *testing.T) {
	p, err := core.NewProxies("default", core.ProxyHTTP, "proxy.internal:3128", nil)
	require.NoError(t, err)
	assert.Equal(t, "default", p.Active())

	proxyURL, err := p.ProxyURL()
	require.NoError(t, err)
	assert.Equal(t, "http://proxy.internal:3128", proxyURL.String())

	require.NoError(t, p.Add("backup", core.ProxyHTTPS, "proxy-b.internal:3128",
		&core.ProxyAuth{Username: "user", Password: "pass"}))

	// Duplicate names are rejected.
	err = p.Add("backup", core.ProxyHTTP, "elsewhere:3128", nil)
	assert.ErrorIs(t, err, core.ErrExisted)

	require.NoError(t, p.Use("backup"))
	proxyURL, err = p.ProxyURL()
	require.NoError(t, err)
	assert.Equal(t, "https", proxyURL.Scheme)
	assert.Equal(t, "user", proxyURL.User.Username())

	// The active entry cannot be removed.
	assert.ErrorIs(t, p.Remove("backup"), core.ErrOccupied)
	require.NoError(t, p.Remove("default"))
	assert.ErrorIs(t, p.Remove("default"), core.ErrNotFound)
	assert.ErrorIs(t, p.Use("default"), core.ErrNotFound)
}

func TestEnvironmentProxies(t *testing.T) {
	t.Setenv(core.EnvProxyType, "http")
	t.Setenv(core.EnvProxyEndpoint, "proxy.internal:8080")
	t.Setenv(core.EnvProxyUsername, "user")
	t.Setenv(core.EnvProxyPassword, "pass")

	p, err := core.NewEnvironmentProxies()
	require.NoError(t, err)

	proxyURL, err := p.ProxyURL()
	require.NoError(t, err)
	assert.Equal(t, "proxy.internal:8080", proxyURL.Host)
	password, _ := proxyURL.User.Password()
	assert.Equal(t, "pass", password)
}

func TestNewProxiesRejectsUnknownType(t *testing.T) {
	_, err := core.NewProxies("default", core.ProxyType("socks5"), "proxy:1080", nil)
	assert.Error(t, err)
}
