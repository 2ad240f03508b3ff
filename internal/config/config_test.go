package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYml = `
server:
  host: "0.0.0.0"
  port: 8092
  write-timeout: 100s
  read-timeout: 100s
  idle-timeout: 100s
  allowed-origins: ["*"]
  log-level: debug
  max-content-length: 4096
  health-check-interval: 300
db:
  db-name: settlement-api-service
  address: mongodb://localhost:27017/?directConnection=true
queue:
  url: localhost:5672
  queue-user: user
  queue-password: password
  processing-timeout: 30
metrics:
  host: 0.0.0.0
  port: 2112
rail:
  kind: xrpl
  node-url: http://localhost:5005
  account: rSourceAccount
  secret: snoopy
  fee: 10
  timeout: 3000
oracle:
  party-name: SettlerOracle
  poll-interval: 5
identity:
  parties:
    key-alice: AliceCorp
    key-bob: BobBank
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigYml), 0o600))
	return path
}

func TestNewParsesConfigFile(t *testing.T) {
	cfg, err := New(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8092, cfg.Server.Port)
	assert.Equal(t, 100*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, int64(4096), cfg.Server.MaxContentLength)

	assert.Equal(t, "settlement-api-service", cfg.Db.DbName)
	assert.Equal(t, "localhost:5672", cfg.Queue.Url)
	assert.Equal(t, 30, cfg.Queue.QueueProcessingTimeout)
	assert.Equal(t, 2112, cfg.Metrics.GetMetricsPort())

	assert.Equal(t, "xrpl", cfg.Rail.Kind)
	assert.Equal(t, int64(10), cfg.Rail.Fee)
	assert.Equal(t, 3000, cfg.Rail.Timeout)

	assert.Equal(t, "SettlerOracle", cfg.Oracle.PartyName)
	assert.Equal(t, 5, cfg.Oracle.PollInterval)
	assert.Equal(t, "AliceCorp", cfg.Identity.Parties["key-alice"])
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	assert.Error(t, err)
}

func validServerConfig() ServerConfig {
	return ServerConfig{
		Host:                "0.0.0.0",
		Port:                8092,
		MaxContentLength:    4096,
		HealthCheckInterval: 300,
		LogLevel:            "debug",
	}
}

func TestServerConfigValidate(t *testing.T) {
	cfg := validServerConfig()
	assert.NoError(t, cfg.Validate())

	badHost := validServerConfig()
	badHost.Host = "not-an-ip"
	assert.Error(t, badHost.Validate())

	badPort := validServerConfig()
	badPort.Port = 70000
	assert.Error(t, badPort.Validate())

	badContentLength := validServerConfig()
	badContentLength.MaxContentLength = 0
	assert.Error(t, badContentLength.Validate())

	badLogLevel := validServerConfig()
	badLogLevel.LogLevel = "chatty"
	assert.Error(t, badLogLevel.Validate())

	// Unset log level falls back to the service default.
	noLogLevel := validServerConfig()
	noLogLevel.LogLevel = ""
	assert.NoError(t, noLogLevel.Validate())
}

func TestDbConfigValidate(t *testing.T) {
	cfg := DbConfig{DbName: "settlement-api-service", Address: "mongodb://localhost:27017"}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&DbConfig{DbName: "x", Address: ""}).Validate())
	assert.Error(t, (&DbConfig{DbName: "", Address: "mongodb://localhost:27017"}).Validate())
	assert.Error(t, (&DbConfig{DbName: "x", Address: "postgres://localhost:5432"}).Validate())
	assert.Error(t, (&DbConfig{DbName: "x", Address: "mongodb://localhost"}).Validate())
	assert.Error(t, (&DbConfig{DbName: "x", Address: "mongodb://localhost:80"}).Validate())
}

func validRailConfig() RailConfig {
	return RailConfig{
		Kind:    "xrpl",
		NodeURL: "http://localhost:5005",
		Account: "rSourceAccount",
		Secret:  "snoopy",
		Fee:     10,
		Timeout: 3000,
	}
}

func TestRailConfigValidate(t *testing.T) {
	cfg := validRailConfig()
	assert.NoError(t, cfg.Validate())

	missingKind := validRailConfig()
	missingKind.Kind = ""
	assert.Error(t, missingKind.Validate())

	badScheme := validRailConfig()
	badScheme.NodeURL = "ws://localhost:5005"
	assert.Error(t, badScheme.Validate())

	missingSecret := validRailConfig()
	missingSecret.Secret = ""
	assert.Error(t, missingSecret.Validate())

	negativeFee := validRailConfig()
	negativeFee.Fee = -1
	assert.Error(t, negativeFee.Validate())

	zeroTimeout := validRailConfig()
	zeroTimeout.Timeout = 0
	assert.Error(t, zeroTimeout.Validate())
}

func TestOracleConfigValidate(t *testing.T) {
	cfg := OracleConfig{PartyName: "SettlerOracle", PollInterval: 5}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&OracleConfig{PartyName: "", PollInterval: 5}).Validate())
	assert.Error(t, (&OracleConfig{PartyName: "SettlerOracle", PollInterval: 0}).Validate())
}

func TestQueueConfigValidate(t *testing.T) {
	cfg := QueueConfig{
		Url: "localhost:5672", QueueUser: "user", QueuePassword: "password", QueueProcessingTimeout: 30,
	}
	assert.NoError(t, cfg.Validate())

	missingUser := cfg
	missingUser.QueueUser = ""
	assert.Error(t, missingUser.Validate())

	zeroTimeout := cfg
	zeroTimeout.QueueProcessingTimeout = 0
	assert.Error(t, zeroTimeout.Validate())
}

func TestMetricsConfigValidate(t *testing.T) {
	cfg := DefaultMetricsConfig()
	assert.NoError(t, cfg.Validate())

	privilegedPort := DefaultMetricsConfig()
	privilegedPort.Port = 80
	assert.Error(t, privilegedPort.Validate())

	badHost := DefaultMetricsConfig()
	badHost.Host = "localhost"
	assert.Error(t, badHost.Validate())
}

func TestIdentityConfigValidate(t *testing.T) {
	cfg := IdentityConfig{Parties: map[string]string{"key-alice": "AliceCorp"}}
	assert.NoError(t, cfg.Validate())

	assert.NoError(t, (&IdentityConfig{}).Validate())
	assert.Error(t, (&IdentityConfig{Parties: map[string]string{"key-alice": ""}}).Validate())
	assert.Error(t, (&IdentityConfig{Parties: map[string]string{"": "AliceCorp"}}).Validate())
}
