package cmd

import (
	"bytes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		tokenUserId, tokenEmail, tokenSuperuser = 0, "", false
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "hash-password", "adminpassword")
	require.NoError(t, err)

	hashed := strings.TrimSpace(out)
	assert.NoError(t, models.VerifyPassword(hashed, "adminpassword"))
}

func TestHashPassword_MissingArgument(t *testing.T) {
	_, err := execute(t, "hash-password")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"Auth": {"SigningKey": "cli-test-key"}}`), 0o600))

	out, err := execute(t, "token", "--config", configPath, "--user-id", "7", "--email", "reader@example.com")
	require.NoError(t, err)

	claims, err := middlewares.ValidateClaims(strings.TrimSpace(out), "cli-test-key")
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserId)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, "milk2meat", claims.Issuer)
}

func TestToken_MissingUserId(t *testing.T) {
	_, err := execute(t, "token")
	assert.ErrorContains(t, err, "--user-id is required")
}
