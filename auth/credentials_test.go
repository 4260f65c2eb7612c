package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCredentials(t *testing.T) {
	c, err := auth.NewCredentials("id", "key")
	require.NoError(t, err)

	secret, err := c.Secret()
	require.NoError(t, err)
	assert.Equal(t, "id", secret.ID)
	assert.Equal(t, "key", secret.Key)
	assert.Empty(t, secret.Token)

	require.NoError(t, c.SetSecret(auth.Secret{ID: "id2", Key: "key2", Token: "token"}))
	secret, err = c.Secret()
	require.NoError(t, err)
	assert.Equal(t, "id2", secret.ID)
	assert.Equal(t, "token", secret.Token)
}

func TestStaticCredentialsRejectsEmptySecret(t *testing.T) {
	_, err := auth.NewCredentials("", "key")
	assert.ErrorIs(t, err, auth.ErrNoSecret)

	_, err = auth.NewCredentials("id", "")
	assert.ErrorIs(t, err, auth.ErrNoSecret)
}

func TestEnvironmentCredentials(t *testing.T) {
	t.Setenv(auth.EnvSecretID, "env-id")
	t.Setenv(auth.EnvSecretKey, "env-key")
	t.Setenv(auth.EnvSessionToken, "env-token")

	c, err := auth.NewEnvironmentCredentials()
	require.NoError(t, err)

	secret, err := c.Secret()
	require.NoError(t, err)
	assert.Equal(t, "env-id", secret.ID)
	assert.Equal(t, "env-key", secret.Key)
	assert.Equal(t, "env-token", secret.Token)

	// Rotation is picked up without rebuilding the credentials.
	t.Setenv(auth.EnvSecretID, "env-id-2")
	secret, err = c.Secret()
	require.NoError(t, err)
	assert.Equal(t, "env-id-2", secret.ID)
}

func TestEnvironmentCredentialsMissingVariable(t *testing.T) {
	os.Unsetenv(auth.EnvSecretID)
	t.Setenv(auth.EnvSecretKey, "env-key")
	os.Unsetenv(auth.EnvSecretID)

	_, err := auth.NewEnvironmentCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), auth.EnvSecretID)
}

func TestFileCredentialsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"secretId":"file-id","secretKey":"file-key"}`), 0600))

	c, err := auth.NewFileCredentials(path)
	require.NoError(t, err)

	secret, err := c.Secret()
	require.NoError(t, err)
	assert.Equal(t, "file-id", secret.ID)
	assert.Equal(t, "file-key", secret.Key)
}

func TestFileCredentialsJSONMissingField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"secretId":"file-id"}`), 0600))

	_, err := auth.NewFileCredentials(path)
	assert.ErrorIs(t, err, auth.ErrNoSecret)
}

func TestProfileCredentialsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"default:\n  secret_id: default-id\n  secret_key: default-key\n"+
			"staging:\n  secret_id: staging-id\n  secret_key: staging-key\n  session_token: staging-token\n"), 0600))

	tests := []struct {
		profile string
		wantID  string
	}{
		{profile: "default", wantID: "default-id"},
		{profile: "staging", wantID: "staging-id"},
	}
	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			c, err := auth.NewProfileCredentials(path, tt.profile)
			require.NoError(t, err)

			secret, err := c.Secret()
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, secret.ID)
		})
	}

	_, err := auth.NewProfileCredentials(path, "production")
	assert.Error(t, err)
}
