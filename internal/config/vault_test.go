package config

import (
	"os"
	"path/filepath"
	"testing"

	"kareerbot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *errors.Logger {
	t.Helper()
	logger, err := errors.New("debug")
	require.NoError(t, err)
	return logger
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{
			name:     "int64 value",
			input:    int64(42),
			expected: 42,
		},
		{
			name:     "float64 value",
			input:    float64(7),
			expected: 7,
		},
		{
			name:     "string value",
			input:    "13",
			expected: 13,
		},
		{
			name:        "unparseable string",
			input:       "not-a-number",
			expectError: true,
		},
		{
			name:        "unexpected type",
			input:       []string{"1"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseVersionValue(tt.input, "secret/data/test")

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, version)
		})
	}
}

func TestApplyGeminiKeyToConfig(t *testing.T) {
	cfg := &Config{}

	applyGeminiKeyToConfig(cfg, "vault-key")

	assert.Equal(t, "vault-key", cfg.AI.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Review.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Chat.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Plan.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Query.APIKey)
}

func TestApplyGeminiKeyToConfigWithExistingKeys(t *testing.T) {
	cfg := &Config{}
	cfg.AI.Review.APIKey = "review-specific-key"
	cfg.AI.Plan.APIKey = "plan-specific-key"

	applyGeminiKeyToConfig(cfg, "vault-key")

	// Global key is always replaced
	assert.Equal(t, "vault-key", cfg.AI.APIKey)

	// Operation-specific keys are preserved when already set
	assert.Equal(t, "review-specific-key", cfg.AI.Review.APIKey)
	assert.Equal(t, "plan-specific-key", cfg.AI.Plan.APIKey)

	// Unset operation keys fall back to the Vault key
	assert.Equal(t, "vault-key", cfg.AI.Chat.APIKey)
	assert.Equal(t, "vault-key", cfg.AI.Query.APIKey)
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger(t)

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		require.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("config token takes precedence over file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("file-token"), 0600))

		token, err := resolveVaultToken(VaultConfig{Token: "direct-token", TokenFile: tokenFile}, logger)
		require.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"}, logger)
		assert.Error(t, err)
	})

	t.Run("no token at all", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.Error(t, err)
	})
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, newTestLogger(t))
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{}
	cfg.AI.APIKey = "existing-key"

	err := ApplyVaultSecrets(cfg, newTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "existing-key", cfg.AI.APIKey)
}

func TestApplyVaultSecretsEnabledRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.Vault.Enabled = true
	cfg.Vault.Address = "https://vault.example.com:8200"

	err := ApplyVaultSecrets(cfg, newTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestGetSecretV2NilClient(t *testing.T) {
	var client *VaultClient
	_, err := client.GetSecretV2("secret/data/test")
	assert.Error(t, err)
}
