package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Equal(t, "equipview", cfg.System.Appid)
	assert.Equal(t, 1816, cfg.Web.Port)
	assert.True(t, cfg.Remote.Enabled)
	assert.Equal(t, 5, cfg.Sync.ProbeTTL)
}

func TestLoadConfigFromFile(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "equipview.yml")
	content := `
system:
  appid: equipview
  workdir: /tmp/ev-test
web:
  host: 127.0.0.1
  port: 9090
  secret: test-secret
remote:
  enabled: false
sync:
  probe_ttl: 11
  reconcile_interval: 60
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o644))

	cfg := LoadConfig(cfile)
	assert.Equal(t, "/tmp/ev-test", cfg.System.Workdir)
	assert.Equal(t, 9090, cfg.Web.Port)
	assert.False(t, cfg.Remote.Enabled)
	assert.Equal(t, 11, cfg.Sync.ProbeTTL)
	assert.Equal(t, 60, cfg.Sync.ReconcileInterval)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("EQUIPVIEW_WEB_PORT", "2816")
	t.Setenv("EQUIPVIEW_REMOTE_ENABLED", "false")
	t.Setenv("EQUIPVIEW_SYNC_PROBE_TTL", "30")

	cfg := LoadConfig("")
	assert.Equal(t, 2816, cfg.Web.Port)
	assert.False(t, cfg.Remote.Enabled)
	assert.Equal(t, 30, cfg.Sync.ProbeTTL)
}

func TestLocalDBPathDefaultsUnderWorkdir(t *testing.T) {
	cfg := &AppConfig{}
	cfg.System.Workdir = "/var/equipview"
	assert.Equal(t, filepath.Join("/var/equipview", "data", "equipview.sqlite"), cfg.LocalDBPath())

	cfg.Local.Path = "/tmp/custom.sqlite"
	assert.Equal(t, "/tmp/custom.sqlite", cfg.LocalDBPath())
}
