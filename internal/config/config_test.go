package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DEFAULT_TENANT", "TENANT_HOSTS"} {
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load()
	require.NoError(t, err)

	// no default tenant out of the box: requests with an unmapped host must
	// be rejected, not silently routed to a storefront
	assert.Empty(t, cfg.DefaultTenant)
	assert.Empty(t, cfg.TenantHosts)
}
