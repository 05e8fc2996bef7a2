package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mongodb", cfg.Store.Driver)
	assert.Equal(t, "sf_session", cfg.Session.CookieName)
	assert.Equal(t, 15.0, cfg.Shop.ShippingFee)
	assert.Equal(t, 5*time.Second, cfg.Etcd.DialTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 3s
store:
  driver: memory
  session_driver: memory
shop:
  shipping_fee: 0
`)
	t.Setenv("STOREFRONT_PAYMENT_SECRET_KEY", "sk_test_123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 0.0, cfg.Shop.ShippingFee)
	assert.Equal(t, "sk_test_123", cfg.Payment.SecretKey)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: sqlite\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "shop"}
	assert.Equal(t, "u:p@tcp(db:3306)/shop?charset=utf8mb4&parseTime=True&loc=Local", c.DSN())
}
